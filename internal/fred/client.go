// Package fred implements read access to FRED (Federal Reserve Economic
// Data), the St. Louis Fed's database of 800,000+ economic time series.
//
// Requires a free API key from https://fred.stlouisfed.org/docs/api/api_key.html
// Rate limit: 120 requests/minute.
// Docs: https://fred.stlouisfed.org/docs/api/fred/
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/macrolens/internal/infra"
)

// DefaultBaseURL is the production FRED API root.
const DefaultBaseURL = "https://api.stlouisfed.org/fred"

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API root. Empty means DefaultBaseURL.
	BaseURL string
	// APIKey is the FRED credential. May be empty when RequireKey is false,
	// in which case the upstream rejects the request itself.
	APIKey string
	// RequireKey makes the client refuse to issue requests without a
	// configured key instead of letting the upstream reject them.
	RequireKey bool
	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration
}

// Client fetches series observations from the FRED API. The credential is
// fixed at construction; it is never read from the environment per call.
type Client struct {
	baseURL    string
	apiKey     string
	requireKey bool
	http       *http.Client
}

// New creates a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    base,
		apiKey:     opts.APIKey,
		requireKey: opts.RequireKey,
		http:       &http.Client{Timeout: timeout},
	}
}

// SeriesObservations fetches observations for the series described by q.
// The returned envelope echoes the effective query parameters upstream
// applied. Errors distinguish bad arguments, missing credentials, HTTP
// failures (*infra.ErrHTTP), unreachable upstream (*UnreachableError),
// undecodable payloads (*DecodeError) and empty payloads (ErrEmptyResponse).
func (c *Client) SeriesObservations(ctx context.Context, q Query) (*ObservationsResponse, error) {
	vals, err := q.Values()
	if err != nil {
		return nil, err
	}
	if c.apiKey == "" && c.requireKey {
		return nil, ErrAPIKeyRequired
	}
	if c.apiKey != "" {
		vals.Set("api_key", c.apiKey)
	}

	url := c.baseURL + "/series/observations?" + vals.Encode()
	body, _, err := infra.DoGetWith(ctx, c.http, url, jsonHeaders())
	if err != nil {
		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) {
			return nil, fmt.Errorf("fetch series %s: %w", q.SeriesID, err)
		}
		return nil, &UnreachableError{URL: url, Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &UnreachableError{URL: url, Err: fmt.Errorf("read FRED response: %w", err)}
	}

	var resp ObservationsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if resp.empty() {
		return nil, ErrEmptyResponse
	}
	return &resp, nil
}

// ExtractObservations pulls the observation list out of a response envelope.
// A well-formed envelope whose observations key is absent or empty yields
// ErrNoObservations.
func ExtractObservations(resp *ObservationsResponse) ([]Observation, error) {
	if resp == nil {
		return nil, ErrEmptyResponse
	}
	if len(resp.Observations) == 0 {
		return nil, ErrNoObservations
	}
	return resp.Observations, nil
}

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}
