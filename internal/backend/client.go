// Package backend is the client of the Supabase REST API that serves tracks,
// per-user playlist orders and analytics events.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/llehouerou/tapdeck/internal/analytics"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/playlists"
)

const (
	ordersTable    = "user_playlist_orders"
	analyticsTable = "analytics_events"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.Code)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// Client provides access to the REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the project at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTracks returns the tracks of kind, newest first.
func (c *Client) ListTracks(ctx context.Context, kind playlist.Kind) ([]playlist.Track, error) {
	q := url.Values{}
	q.Set("order", "created_at.desc")

	switch kind {
	case playlist.KindAudio:
		q.Set("select", "id,title,audio_url,cover_image_url,duration,artists(name)")
		var rows []audioRow
		if err := c.get(ctx, "audio_tracks", q, &rows); err != nil {
			return nil, err
		}
		tracks := make([]playlist.Track, len(rows))
		for i, r := range rows {
			tracks[i] = r.track()
		}
		return tracks, nil
	case playlist.KindVideo:
		q.Set("select", "id,title,video_url,thumbnail_url,duration,artists(name)")
		var rows []videoRow
		if err := c.get(ctx, "video_tracks", q, &rows); err != nil {
			return nil, err
		}
		tracks := make([]playlist.Track, len(rows))
		for i, r := range rows {
			tracks[i] = r.track()
		}
		return tracks, nil
	default:
		return nil, fmt.Errorf("%w: %q", playlist.ErrUnknownKind, kind)
	}
}

// GetPlaylistOrder returns the order record of userID, or nil when the user
// has none.
func (c *Client) GetPlaylistOrder(ctx context.Context, userID string) (*playlists.Record, error) {
	q := url.Values{}
	q.Set("select", "user_id,audio_order,video_order")
	q.Set("user_id", "eq."+userID)
	q.Set("limit", "1")

	var rows []playlists.Record
	if err := c.get(ctx, ordersTable, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertPlaylistOrder replaces the order of kind in the record of userID,
// creating the record when missing. The other kind's order is untouched.
func (c *Client) UpsertPlaylistOrder(ctx context.Context, userID string, kind playlist.Kind, ids []string) error {
	column, err := orderColumn(kind)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	body := map[string]any{
		"user_id":    userID,
		column:       ids,
		"updated_at": c.now().UTC().Format(time.RFC3339),
	}

	q := url.Values{}
	q.Set("on_conflict", "user_id")
	return c.post(ctx, ordersTable, q, body, "resolution=merge-duplicates,return=minimal")
}

// RecordAnalyticsEvent inserts one analytics event.
func (c *Client) RecordAnalyticsEvent(ctx context.Context, eventType string, metadata map[string]any) error {
	return c.post(ctx, analyticsTable, nil, analyticsRow{EventType: eventType, Metadata: metadata}, "return=minimal")
}

func orderColumn(kind playlist.Kind) (string, error) {
	switch kind {
	case playlist.KindAudio:
		return "audio_order", nil
	case playlist.KindVideo:
		return "video_order", nil
	default:
		return "", fmt.Errorf("%w: %q", playlist.ErrUnknownKind, kind)
	}
}

func (c *Client) endpoint(table string, q url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, table string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(table, q), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, table string, q url.Values, body any, prefer string) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(table, q), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", prefer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// setHeaders sets common headers for API requests.
func (c *Client) setHeaders(req *http.Request) {
	// Only set Content-Type for requests with a body
	if req.Method == http.MethodPost || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

var (
	_ playlists.Remote = (*Client)(nil)
	_ analytics.Sink   = (*Client)(nil)
)
