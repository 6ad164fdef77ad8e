// Package sleeper is a minimal read-only client for the Sleeper fantasy
// football API (https://docs.sleeper.com). Endpoints return the raw JSON
// payloads so exports preserve upstream fields byte for byte; typed views
// in types.go decode only what the summaries need.
package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production Sleeper API endpoint.
const DefaultBaseURL = "https://api.sleeper.app/v1"

const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
	retryBackoff   = 750 * time.Millisecond
	userAgent      = "sleeperagent/1.0"
)

// Client calls the Sleeper API with bounded retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API endpoint (default: DefaultBaseURL).
	BaseURL string
	// Timeout for each HTTP request (default: 30s).
	Timeout time.Duration
}

// NewClient creates a Sleeper API client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: opts.BaseURL,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: logger.With().Str("component", "sleeper").Logger(),
	}
}

// League fetches the league object.
func (c *Client) League(ctx context.Context, leagueID string) (json.RawMessage, error) {
	return c.get(ctx, "/league/"+leagueID)
}

// Users fetches the league's users.
func (c *Client) Users(ctx context.Context, leagueID string) (json.RawMessage, error) {
	return c.get(ctx, "/league/"+leagueID+"/users")
}

// Rosters fetches the league's rosters.
func (c *Client) Rosters(ctx context.Context, leagueID string) (json.RawMessage, error) {
	return c.get(ctx, "/league/"+leagueID+"/rosters")
}

// Matchups fetches one week of matchups.
func (c *Client) Matchups(ctx context.Context, leagueID string, week int) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/league/%s/matchups/%d", leagueID, week))
}

// Transactions fetches one week of transactions. Some seasons have no
// per-week transactions endpoint; a 404 is tolerated as an empty list.
func (c *Client) Transactions(ctx context.Context, leagueID string, week int) (json.RawMessage, error) {
	data, err := c.get(ctx, fmt.Sprintf("/league/%s/transactions/%d", leagueID, week))
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return json.RawMessage("[]"), nil
		}
		return nil, err
	}
	return data, nil
}

// Drafts fetches the league's drafts.
func (c *Client) Drafts(ctx context.Context, leagueID string) (json.RawMessage, error) {
	return c.get(ctx, "/league/"+leagueID+"/drafts")
}

// Draft fetches a single draft object.
func (c *Client) Draft(ctx context.Context, draftID string) (json.RawMessage, error) {
	return c.get(ctx, "/draft/"+draftID)
}

// DraftPicks fetches all picks of a draft.
func (c *Client) DraftPicks(ctx context.Context, draftID string) (json.RawMessage, error) {
	return c.get(ctx, "/draft/"+draftID+"/picks")
}

// Players fetches the full NFL players catalog. The payload is large
// (tens of MB); callers trim it to the ids actually used.
func (c *Client) Players(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/players/nfl")
}

// NFLState fetches the current NFL season/week state.
func (c *Client) NFLState(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/state/nfl")
}

// StatusError reports a non-2xx response that was not retried away.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// get performs a GET with bounded retries on transient failures
// (429 and 5xx responses, transport errors) using linear backoff.
func (c *Client) get(ctx context.Context, apiPath string) (json.RawMessage, error) {
	url := c.baseURL + apiPath

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, retryBackoff*time.Duration(attempt-1)); err != nil {
				return nil, err
			}
			c.logger.Debug().Str("url", url).Int("attempt", attempt).Msg("retrying request")
		}

		data, err := c.doGet(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !retryableStatus(se.StatusCode) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("GET %s: %w", url, lastErr)
}

func (c *Client) doGet(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return json.RawMessage(data), nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
