package rows

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"varlik/internal/core"
)

// Reliable wraps a TableStore with bounded retries and exponential backoff
// for transient collaborator failures. After the attempts are exhausted the
// failure is surfaced as a typed core.CollaboratorError; the engine never
// swallows an outage and substitutes fabricated values.
type Reliable struct {
	inner     TableStore
	attempts  int
	baseDelay time.Duration
}

// NewReliable decorates inner with up to attempts tries per operation.
func NewReliable(inner TableStore, attempts int, baseDelay time.Duration) *Reliable {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &Reliable{inner: inner, attempts: attempts, baseDelay: baseDelay}
}

var _ TableStore = (*Reliable)(nil)

func (r *Reliable) AppendRow(ctx context.Context, table string, values []string) error {
	return r.retry(ctx, "append "+table, func() error {
		return r.inner.AppendRow(ctx, table, values)
	})
}

func (r *Reliable) ReadAllRows(ctx context.Context, table string) (Table, error) {
	var out Table
	err := r.retry(ctx, "read "+table, func() error {
		var innerErr error
		out, innerErr = r.inner.ReadAllRows(ctx, table)
		return innerErr
	})
	return out, err
}

func (r *Reliable) UpdateRow(ctx context.Context, table string, rowIndex int, values []string) error {
	return r.retry(ctx, "update "+table, func() error {
		return r.inner.UpdateRow(ctx, table, rowIndex, values)
	})
}

func (r *Reliable) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		// Domain rejections and cancellations are not transient.
		if !retryable(lastErr) || attempt == r.attempts {
			break
		}
		slog.WarnContext(ctx, "Table operation failed, retrying",
			"operation", op,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr)
		select {
		case <-ctx.Done():
			return &core.CollaboratorError{Op: op, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}
	return &core.CollaboratorError{Op: op, Err: lastErr}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
