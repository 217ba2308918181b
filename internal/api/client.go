// Package api is the typed gateway to the attendance REST backend. It is a
// pure I/O boundary: every call decodes the server's response and stamps
// snapshots with their client-side capture instant, but holds no session
// logic of its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oserdar/punchr/internal/session"
)

// APIError is a non-2xx response carrying the server's verbatim message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Client talks to the attendance backend for a single user.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client

	now func() time.Time
}

func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// Status fetches the current snapshot.
func (c *Client) Status(ctx context.Context) (session.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodGet, "/attendance/status", nil)
}

// ClockIn opens a session and returns the fresh snapshot.
func (c *Client) ClockIn(ctx context.Context) (session.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, "/attendance/clock-in", nil)
}

// ClockOut closes the session with the daily report.
func (c *Client) ClockOut(ctx context.Context, report string) (session.Snapshot, error) {
	body := map[string]string{"daily_report": report}
	return c.snapshotCall(ctx, http.MethodPost, "/attendance/clock-out", body)
}

// StartBreak suspends work time.
func (c *Client) StartBreak(ctx context.Context) (session.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, "/attendance/start-break", nil)
}

// EndBreak resumes work time.
func (c *Client) EndBreak(ctx context.Context) (session.Snapshot, error) {
	return c.snapshotCall(ctx, http.MethodPost, "/attendance/end-break", nil)
}

// HistoryFilter narrows a history query.
type HistoryFilter struct {
	UserID    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Limit     int
}

// History fetches session history, newest first.
func (c *Client) History(ctx context.Context, f HistoryFilter) ([]session.LogEntry, error) {
	q := url.Values{}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/attendance/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page session.HistoryPage
	if err := c.call(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Logs, nil
}

// UpdateTodayReport rewrites today's daily report.
func (c *Client) UpdateTodayReport(ctx context.Context, content string) error {
	body := map[string]string{"daily_report": content}
	return c.call(ctx, http.MethodPost, "/backend/update-report", body, nil)
}

func (c *Client) snapshotCall(ctx context.Context, method, path string, body any) (session.Snapshot, error) {
	var snap session.Snapshot
	if err := c.call(ctx, method, path, body, &snap); err != nil {
		return session.Snapshot{}, err
	}
	// TakenAt anchors the client-side drift reconciliation; it is the
	// decode instant, not a server field.
	snap.TakenAt = c.now()
	return snap, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-User-Id", c.userID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.Message = payload.Error
	}
	return apiErr
}
