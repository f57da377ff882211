// Package worker replicates engine writes from the primary backend into the
// spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"varlik/internal/amqp"
	"varlik/internal/rows"
)

// MirrorWorker reconciles whole streams from the primary TableStore into the
// mirror. Reconciliation is idempotent: it reads the authoritative primary
// rows and appends or replaces mirror rows until both match, so duplicate or
// out-of-order messages are harmless.
type MirrorWorker struct {
	primary rows.TableStore
	mirror  rows.TableStore
	streams []string
}

// NewMirrorWorker creates a worker for the given streams.
func NewMirrorWorker(primary, mirror rows.TableStore, streams ...string) *MirrorWorker {
	return &MirrorWorker{primary: primary, mirror: mirror, streams: streams}
}

// HandleMessage reconciles the stream named by a mirror announcement.
func (w *MirrorWorker) HandleMessage(ctx context.Context) func(*amqp.MirrorMessage) error {
	return func(msg *amqp.MirrorMessage) error {
		return w.Reconcile(ctx, msg.Stream)
	}
}

// Reconcile brings the mirror's copy of stream up to date with the primary.
func (w *MirrorWorker) Reconcile(ctx context.Context, stream string) error {
	if !w.knows(stream) {
		slog.WarnContext(ctx, "Ignoring mirror request for unknown stream", "stream", stream)
		return nil
	}

	source, err := w.primary.ReadAllRows(ctx, stream)
	if err != nil {
		return fmt.Errorf("read primary %s: %w", stream, err)
	}
	if source.IsEmpty() {
		return nil
	}

	target, err := w.mirror.ReadAllRows(ctx, stream)
	if err != nil {
		return fmt.Errorf("read mirror %s: %w", stream, err)
	}

	if target.IsEmpty() {
		if err := w.mirror.AppendRow(ctx, stream, source.Header); err != nil {
			return fmt.Errorf("write mirror header %s: %w", stream, err)
		}
	} else if !rowsEqual(rows.NormalizeHeader(target.Header), rows.NormalizeHeader(source.Header)) {
		return fmt.Errorf("mirror %s: header %v does not match primary %v", stream, target.Header, source.Header)
	}

	appended, updated := 0, 0
	for i, row := range source.Rows {
		if i < len(target.Rows) {
			if rowsEqual(target.Rows[i], row) {
				continue
			}
			if err := w.mirror.UpdateRow(ctx, stream, i, row); err != nil {
				return fmt.Errorf("update mirror %s row %d: %w", stream, i, err)
			}
			updated++
			continue
		}
		if err := w.mirror.AppendRow(ctx, stream, row); err != nil {
			return fmt.Errorf("append mirror %s row %d: %w", stream, i, err)
		}
		appended++
	}

	if len(target.Rows) > len(source.Rows) {
		// The port cannot delete rows; surplus mirror rows need a human.
		slog.WarnContext(ctx, "Mirror has more rows than primary",
			"stream", stream,
			"mirror_rows", len(target.Rows),
			"primary_rows", len(source.Rows))
	}

	if appended > 0 || updated > 0 {
		slog.InfoContext(ctx, "Stream mirrored",
			"stream", stream,
			"appended", appended,
			"updated", updated)
	}
	return nil
}

// ReconcileAll reconciles every configured stream, continuing past per-stream
// failures so one broken sheet cannot starve the others.
func (w *MirrorWorker) ReconcileAll(ctx context.Context) error {
	var firstErr error
	for _, stream := range w.streams {
		if err := w.Reconcile(ctx, stream); err != nil {
			slog.ErrorContext(ctx, "Stream reconciliation failed",
				"stream", stream,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run reconciles all streams on a fixed interval until ctx is done. It backs
// the AMQP consumer up so a lost message is repaired on the next tick.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ReconcileAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reconciliation failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) knows(stream string) bool {
	for _, s := range w.streams {
		if s == stream {
			return true
		}
	}
	return false
}

func rowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
