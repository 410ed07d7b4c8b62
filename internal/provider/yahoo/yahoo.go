// Package yahoo fetches daily chart data from the Yahoo Finance chart API as
// exposed by RapidAPI (yh-finance). The provider takes a coarse range token
// instead of exact bounds, so the requested span is bucketed first.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
	"github.com/ahmethakanbesel/stockmailer/internal/report"
)

const (
	dateFormat      = "2006-01-02"
	defaultAPIHost  = "yh-finance.p.rapidapi.com"
	maxErrorBodyLen = 512
)

// Client issues a single chart request per Fetch. It does not retry.
type Client struct {
	client   *http.Client
	endpoint string
	apiKey   string
	apiHost  string
}

// New creates a Client with the given options applied. The endpoint and API
// key have no defaults: Fetch fails with a Configuration error until both
// are set.
func New(opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		apiHost: defaultAPIHost,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithClient sets the HTTP client.
func WithClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithEndpoint sets the chart endpoint, e.g.
// https://yh-finance.p.rapidapi.com/stock/v3/get-chart.
func WithEndpoint(ep string) Option {
	return func(c *Client) { c.endpoint = ep }
}

// WithAPIKey sets the RapidAPI key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithAPIHost overrides the RapidAPI host header.
func WithAPIHost(host string) Option {
	return func(c *Client) {
		if host != "" {
			c.apiHost = host
		}
	}
}

// Fetch returns the raw chart payload for symbol covering start..end.
func (c *Client) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]byte, error) {
	if c.endpoint == "" {
		return nil, apperror.New(apperror.Configuration, "chart provider endpoint is not configured")
	}
	if c.apiKey == "" {
		return nil, apperror.New(apperror.Configuration, "chart provider API key is not configured")
	}

	bucket := report.Bucket(start, end)

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, apperror.Wrap(apperror.Configuration, "parse chart provider endpoint", err)
	}
	q := u.Query()
	q.Set("interval", "1d")
	q.Set("symbol", symbol)
	q.Set("range", string(bucket))
	q.Set("region", "US")
	q.Set("includePrePost", "false")
	q.Set("useYfid", "true")
	q.Set("includeAdjustedClose", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.Upstream, "build chart request", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	res, err := c.client.Do(req) //nolint:gosec // URL built from internal config
	if err != nil {
		return nil, apperror.Wrap(apperror.Upstream, "fetch chart", err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.Upstream, "read chart response", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if len(body) > maxErrorBodyLen {
			body = body[:maxErrorBodyLen]
		}
		return nil, apperror.New(apperror.Upstream,
			fmt.Sprintf("chart provider returned HTTP %d for %s: %s", res.StatusCode, symbol, body))
	}

	slog.Info("retrieved chart data", "symbol", symbol,
		"from", start.Format(dateFormat), "to", end.Format(dateFormat),
		"range", bucket, "bytes", len(body))

	return body, nil
}
