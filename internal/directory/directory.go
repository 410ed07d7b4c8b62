// Package directory looks symbols up in a listing directory: a JSON array of
// {symbol, company name} objects served from a configured URL, such as the
// NASDAQ listed-securities dataset.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
)

// Listing is one entry of the directory.
type Listing struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
}

// rawListing accepts both spellings of the name column found in published
// listing datasets.
type rawListing struct {
	Symbol      string `json:"Symbol"`
	CompanyName string `json:"Company Name"`
	Company     string `json:"Company"`
}

// Client fetches the directory on every call; it keeps no cache.
type Client struct {
	endpoint string
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Client) { d.client = c }
}

// New creates a Client for the directory at endpoint. An empty endpoint is
// accepted; every lookup then fails with a Configuration error.
func New(endpoint string, opts ...Option) *Client {
	d := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Listings returns the full directory.
func (d *Client) Listings(ctx context.Context) ([]Listing, error) {
	if d.endpoint == "" {
		return nil, apperror.New(apperror.Configuration, "symbol directory endpoint is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.Configuration, "build directory request", err)
	}

	res, err := d.client.Do(req) //nolint:gosec // URL from internal config
	if err != nil {
		return nil, apperror.Wrap(apperror.Upstream, "fetch symbol directory", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.Upstream, fmt.Sprintf("symbol directory returned HTTP %d", res.StatusCode))
	}

	var raw []rawListing
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, apperror.Wrap(apperror.MalformedPayload, "decode symbol directory", err)
	}

	listings := make([]Listing, 0, len(raw))
	for _, r := range raw {
		name := r.CompanyName
		if name == "" {
			name = r.Company
		}
		listings = append(listings, Listing{Symbol: r.Symbol, CompanyName: name})
	}
	return listings, nil
}

// Lookup returns the listing whose symbol matches exactly (case-sensitive),
// or nil when the directory has no such symbol.
func (d *Client) Lookup(ctx context.Context, symbol string) (*Listing, error) {
	listings, err := d.Listings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		if listings[i].Symbol == symbol {
			return &listings[i], nil
		}
	}
	return nil, nil
}

// Exists reports whether symbol is listed. Any lookup failure counts as not
// listed.
func (d *Client) Exists(ctx context.Context, symbol string) bool {
	l, err := d.Lookup(ctx, symbol)
	if err != nil {
		slog.Error("symbol lookup failed", "symbol", symbol, "error", err)
		return false
	}
	return l != nil
}

// DisplayName returns the company name for symbol. It returns symbol itself
// when the lookup fails, the symbol is not listed, or the name is blank.
func (d *Client) DisplayName(ctx context.Context, symbol string) string {
	l, err := d.Lookup(ctx, symbol)
	if err != nil {
		slog.Warn("company name lookup failed, using symbol", "symbol", symbol, "error", err)
		return symbol
	}
	if l == nil || l.CompanyName == "" {
		return symbol
	}
	return l.CompanyName
}
