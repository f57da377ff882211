package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
	"varlik/internal/services"
)

// handleHealth performs a basic liveness check.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady checks that the row store behind the engine answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "ready"
	httpStatus := http.StatusOK

	if s.reports == nil {
		checks["engine"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.reports.Snapshots().Count(ctx); err != nil {
		checks["engine"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["engine"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type snapshotRequest struct {
	Date    string            `json:"date"`
	Amounts map[string]string `json:"amounts,omitempty"`
	Units   map[string]string `json:"units,omitempty"`
}

type snapshotResponse struct {
	Date   string            `json:"date"`
	Values map[string]string `json:"values"`
	Total  string            `json:"total"`
}

func snapshotToResponse(snap core.Snapshot) snapshotResponse {
	values := make(map[string]string, len(snap.Values))
	for key, amount := range snap.Values {
		values[key] = amount.String()
	}
	return snapshotResponse{
		Date:   snap.Date.String(),
		Values: values,
		Total:  snap.Total().String(),
	}
}

// handleSnapshots records a dated snapshot, either as plain amounts or as
// unit quantities converted through the price feed.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req snapshotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if (len(req.Amounts) == 0) == (len(req.Units) == 0) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exactly one of amounts or units must be provided"})
		return
	}

	var snap core.Snapshot
	if len(req.Amounts) > 0 {
		values, perr := parseAmountMap(req.Amounts)
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		snap, err = s.reports.RecordAmounts(r.Context(), date, values)
	} else {
		units, perr := parseAmountMap(req.Units)
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		snap, err = s.reports.RecordUnits(r.Context(), date, units)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, snapshotToResponse(snap))
}

type categoryChangeResponse struct {
	Key     string  `json:"key"`
	Amount  string  `json:"amount"`
	Delta   string  `json:"delta"`
	Percent *string `json:"percent,omitempty"`
}

type valuationResponse struct {
	Snapshot   snapshotResponse         `json:"snapshot"`
	Reference  *snapshotResponse        `json:"reference,omitempty"`
	Total      string                   `json:"total"`
	Delta      string                   `json:"delta"`
	Percent    *string                  `json:"percent,omitempty"`
	Categories []categoryChangeResponse `json:"categories"`
}

// handleValuation returns the summary of the latest snapshot against the one
// before it.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	summary, err := s.reports.Valuation(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := valuationResponse{
		Snapshot:   snapshotToResponse(summary.Snapshot),
		Total:      summary.Total.String(),
		Delta:      summary.Delta.String(),
		Percent:    optionalPercent(summary.Percent, summary.HasPercent),
		Categories: make([]categoryChangeResponse, 0, len(summary.Categories)),
	}
	if summary.Reference != nil {
		ref := snapshotToResponse(*summary.Reference)
		resp.Reference = &ref
	}
	for _, c := range summary.Categories {
		resp.Categories = append(resp.Categories, categoryChangeResponse{
			Key:     c.Key,
			Amount:  c.Amount.String(),
			Delta:   c.Delta.String(),
			Percent: optionalPercent(c.Percent, c.HasPercent),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type categoryPerformanceResponse struct {
	Key     string  `json:"key"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Delta   string  `json:"delta"`
	Percent *string `json:"percent,omitempty"`
	New     bool    `json:"new,omitempty"`
}

type performanceResponse struct {
	Window          string                        `json:"window"`
	RequestedDays   int                           `json:"requested_days"`
	SpanDays        int                           `json:"span_days"`
	FallbackApplied bool                          `json:"fallback_applied"`
	Reference       snapshotResponse              `json:"reference"`
	Current         snapshotResponse              `json:"current"`
	Percent         *string                       `json:"percent,omitempty"`
	Categories      []categoryPerformanceResponse `json:"categories"`
}

// handlePerformance answers windowed-return queries. The window is selected
// either by a named label (window=1M) or an explicit day count (days=45).
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	window, err := windowFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.reports.Analyzer().WindowedReturn(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := performanceResponse{
		Window:          result.Window.Label,
		RequestedDays:   result.Window.Days,
		SpanDays:        result.SpanDays,
		FallbackApplied: result.FallbackApplied,
		Reference:       snapshotToResponse(result.Reference),
		Current:         snapshotToResponse(result.Current),
		Percent:         optionalPercent(result.Percent, result.HasPercent),
		Categories:      make([]categoryPerformanceResponse, 0, len(result.Categories)),
	}
	for _, c := range result.Categories {
		resp.Categories = append(resp.Categories, categoryPerformanceResponse{
			Key:     c.Key,
			Start:   c.Start.String(),
			End:     c.End.String(),
			Delta:   c.Delta.String(),
			Percent: optionalPercent(c.Percent, c.HasPercent),
			New:     c.New,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type ledgerEntryResponse struct {
	Date      string `json:"date"`
	Allocated string `json:"allocated"`
	Spent     string `json:"spent"`
	Remaining string `json:"remaining"`
	CarryOver string `json:"carry_over"`
	Status    string `json:"status"`
}

func ledgerEntryToResponse(entry core.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		Date:      entry.Date.String(),
		Allocated: entry.Allocated.String(),
		Spent:     entry.Spent.String(),
		Remaining: entry.Remaining.String(),
		CarryOver: entry.CarryOver.String(),
		Status:    string(entry.Status()),
	}
}

// handleBudget returns the current budget state.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	entry, err := s.reports.CurrentBudget(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerEntryToResponse(entry))
}

// handleBudgetHistory returns the full ledger in date order.
func (s *Server) handleBudgetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	entries, err := s.reports.BudgetHistory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]ledgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, ledgerEntryToResponse(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

type initializeRequest struct {
	Allocated string `json:"allocated"`
}

func (s *Server) handleBudgetInitialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req initializeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	allocated, err := core.ParseAmount(req.Allocated)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := s.reports.InitializeBudget(r.Context(), allocated)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ledgerEntryToResponse(entry))
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleBudgetSpend(w http.ResponseWriter, r *http.Request) {
	s.handleBudgetMutation(w, r, s.reports.Spend)
}

func (s *Server) handleBudgetReplenish(w http.ResponseWriter, r *http.Request) {
	s.handleBudgetMutation(w, r, s.reports.Replenish)
}

func (s *Server) handleBudgetMutation(w http.ResponseWriter, r *http.Request, apply func(context.Context, decimal.Decimal) (core.LedgerEntry, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := apply(r.Context(), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ledgerEntryToResponse(entry))
}

func parseAmountMap(raw map[string]string) (map[string]decimal.Decimal, error) {
	values := make(map[string]decimal.Decimal, len(raw))
	for key, text := range raw {
		amount, err := core.ParseAmount(text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		values[strings.TrimSpace(key)] = amount
	}
	return values, nil
}

func windowFromQuery(r *http.Request) (services.Window, error) {
	label := strings.TrimSpace(r.URL.Query().Get("window"))
	daysParam := strings.TrimSpace(r.URL.Query().Get("days"))

	switch {
	case label != "" && daysParam != "":
		return services.Window{}, fmt.Errorf("window and days are mutually exclusive")
	case label != "":
		window, ok := services.NamedWindow(label)
		if !ok {
			return services.Window{}, fmt.Errorf("unknown window %q", label)
		}
		return window, nil
	case daysParam != "":
		days, err := strconv.Atoi(daysParam)
		if err != nil || days < 1 {
			return services.Window{}, fmt.Errorf("days must be a positive integer")
		}
		return services.CustomWindow(days), nil
	default:
		return services.WindowMonth, nil
	}
}

func optionalPercent(value decimal.Decimal, ok bool) *string {
	if !ok {
		return nil
	}
	s := value.String()
	return &s
}
