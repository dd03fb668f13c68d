// Package api provides the HTTP client for the casedesk backend.
//
// This package handles retrieving search results and matter listings from
// the server and converting them to the structs the rest of the app uses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"casedesk/internal/store"
)

// ErrUnavailable indicates the backend refused service (5xx). Callers treat
// the affected source as down for this query, not the whole app as broken.
var ErrUnavailable = errors.New("backend unavailable")

// requestsPerSecond caps the client-side request rate. The debounce window
// already spaces searches out; this is a backstop for the cache refresher
// and retry paths sharing the same client.
const requestsPerSecond = 5

// ClientRecord is a client-directory entry returned by server-side search.
type ClientRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client talks to the casedesk backend.
type Client struct {
	base    string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client for the backend at baseURL with the given per-request
// timeout. token may be empty for unauthenticated deployments.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		base:  baseURL,
		token: token,
		http: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// SearchClients runs a server-side client-directory search for query.
//
// The function respects context cancellation and will return early if the
// context is cancelled.
func (c *Client) SearchClients(ctx context.Context, query string) ([]ClientRecord, error) {
	u := c.base + "/v1/clients/search?q=" + url.QueryEscape(query)

	var records []ClientRecord
	if err := c.getJSON(ctx, u, &records); err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	return records, nil
}

// matterPayload is the wire shape of a matter.
type matterPayload struct {
	ID         string    `json:"id"`
	Ref        string    `json:"ref"`
	Title      string    `json:"title"`
	ClientName string    `json:"client_name"`
	Status     string    `json:"status"`
	OpenedAt   time.Time `json:"opened_at"`
}

// ListMatters retrieves the most recently opened matters, newest first.
// Returns store.Matter structs ready for caching; CachedAt is set to now.
func (c *Client) ListMatters(ctx context.Context, limit int) ([]store.Matter, error) {
	u := c.base + "/v1/matters/recent?limit=" + strconv.Itoa(limit)

	var payload []matterPayload
	if err := c.getJSON(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("list matters: %w", err)
	}

	now := time.Now()
	matters := make([]store.Matter, 0, len(payload))
	for _, p := range payload {
		matters = append(matters, store.Matter{
			ID:         p.ID,
			Ref:        p.Ref,
			Title:      p.Title,
			ClientName: p.ClientName,
			Status:     p.Status,
			OpenedAt:   p.OpenedAt,
			CachedAt:   now,
		})
	}
	return matters, nil
}

// getJSON performs a rate-limited GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	// Check context before starting
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// The limiter wait is bounded by the caller's context, so a cancelled
	// search never queues a request.
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "casedesk/0.1")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("HTTP %d %s: %w", resp.StatusCode, resp.Status, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
