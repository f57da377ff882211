// Package pricefeed integrates a best-effort source of per-instrument unit
// prices. The feed is only consulted to convert unit quantities into currency
// amounts before a snapshot write; it is never required for a write carrying
// pre-computed amounts, and it must never hang the write path.
package pricefeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"varlik/internal/core"
)

// Source supplies the current unit price for an instrument code.
type Source interface {
	UnitPrice(ctx context.Context, code string) (decimal.Decimal, error)
}

// Client fetches unit prices from an XML-over-HTTP rates endpoint of the form
//
//	<Rates><Rate code="XAU">2034.50</Rate>...</Rates>
//
// Failures fall back to the last price successfully fetched for the code; a
// code with no last-known price is rejected with core.ErrPriceUnavailable.
type Client struct {
	url    string
	client *http.Client

	mu        sync.Mutex
	lastKnown map[string]decimal.Decimal
}

var _ Source = (*Client)(nil)

// NewClient creates a feed client with a hard request timeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:       url,
		client:    &http.Client{Timeout: timeout},
		lastKnown: make(map[string]decimal.Decimal),
	}
}

// UnitPrice returns the live price for code, or the last-known price when the
// feed is unreachable.
func (c *Client) UnitPrice(ctx context.Context, code string) (decimal.Decimal, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return decimal.Zero, fmt.Errorf("%w: empty instrument code", core.ErrPriceUnavailable)
	}

	price, err := c.fetch(ctx, code)
	if err == nil {
		c.remember(code, price)
		return price, nil
	}

	if last, ok := c.recall(code); ok {
		slog.WarnContext(ctx, "Price feed unavailable, using last-known price",
			"code", code,
			"price", last,
			"error", err)
		return last, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s: %v", core.ErrPriceUnavailable, code, err)
}

func (c *Client) fetch(ctx context.Context, code string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, &core.CollaboratorError{Op: "price feed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &core.CollaboratorError{
			Op:  "price feed",
			Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, &core.CollaboratorError{Op: "price feed", Err: err}
	}

	return parseRate(body, code)
}

// parseRate extracts the price for code from the rates XML document.
func parseRate(raw []byte, code string) (decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return decimal.Zero, fmt.Errorf("parse rates XML: %w", err)
	}

	for _, el := range doc.FindElements("//Rate") {
		if !strings.EqualFold(strings.TrimSpace(el.SelectAttrValue("code", "")), code) {
			continue
		}
		price, err := core.ParseAmount(el.Text())
		if err != nil {
			return decimal.Zero, fmt.Errorf("rate for %s: %w", code, err)
		}
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("no rate for %s in feed response", code)
}

func (c *Client) remember(code string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastKnown[code] = price
}

func (c *Client) recall(code string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	price, ok := c.lastKnown[code]
	return price, ok
}

// Static is a fixed in-memory Source for tests and offline use.
type Static map[string]decimal.Decimal

var _ Source = Static(nil)

func (s Static) UnitPrice(_ context.Context, code string) (decimal.Decimal, error) {
	if price, ok := s[code]; ok {
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", core.ErrPriceUnavailable, code)
}
