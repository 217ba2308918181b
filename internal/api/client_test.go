package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oserdar/punchr/internal/server"
	"github.com/oserdar/punchr/internal/session"
	"github.com/oserdar/punchr/internal/store"
)

const okReport = "closed out three leads, prepped tomorrow's demo, updated the pipeline sheet"

// newTestClient wires a real engine behind httptest so the client is
// exercised against the actual contract, not a hand-written stub.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	db, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(server.NewRouter(server.NewEngine(db)))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "u1")
}

func TestClockInStatusRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	snap, err := c.ClockIn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != session.Working {
		t.Fatalf("status = %v, want Working", snap.Status)
	}
	if snap.TakenAt.IsZero() {
		t.Fatal("snapshot missing capture instant")
	}

	// Immediately re-fetched status agrees and reads near zero.
	again, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != session.Working {
		t.Fatalf("status = %v", again.Status)
	}
	if again.WorkingSeconds > 2 {
		t.Fatalf("fresh session working seconds = %d", again.WorkingSeconds)
	}
}

func TestServerErrorSurfacesVerbatim(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.ClockIn(ctx)
	_, err := c.ClockIn(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "clocked in") {
		t.Fatalf("message = %q, want the server's words", apiErr.Message)
	}
}

func TestBreakFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.ClockIn(ctx)
	snap, err := c.StartBreak(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != session.OnBreak {
		t.Fatalf("status = %v, want OnBreak", snap.Status)
	}

	snap, err = c.EndBreak(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != session.Working {
		t.Fatalf("status = %v, want Working", snap.Status)
	}
}

func TestClockOutAndHistory(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.ClockIn(ctx)
	snap, err := c.ClockOut(ctx, okReport)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != session.ClockedOut {
		t.Fatalf("status = %v, want ClockedOut", snap.Status)
	}

	logs, err := c.History(ctx, HistoryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("history = %d entries", len(logs))
	}
	if logs[0].DailyReport != okReport {
		t.Fatal("report missing from history")
	}
	if logs[0].ClockOut == nil {
		t.Fatal("closed session should carry clock-out time")
	}
}

func TestUpdateTodayReport(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.ClockIn(ctx)
	c.ClockOut(ctx, okReport)

	edited := okReport + ", plus the quarterly numbers"
	if err := c.UpdateTodayReport(ctx, edited); err != nil {
		t.Fatal(err)
	}
	logs, _ := c.History(ctx, HistoryFilter{})
	if logs[0].DailyReport != edited {
		t.Fatal("edit not applied")
	}

	var apiErr *APIError
	if err := c.UpdateTodayReport(ctx, "short"); !errors.As(err, &apiErr) {
		t.Fatalf("short report: %v", err)
	}
}

func TestHistoryFilterEncoding(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"logs": [], "total": 0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "u1")
	_, err := c.History(context.Background(), HistoryFilter{
		UserID:    "u2",
		StartDate: "2026-08-01",
		EndDate:   "2026-08-28",
		Limit:     10,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"user_id=u2", "start_date=2026-08-01", "end_date=2026-08-28", "limit=10"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "u1")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Status(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
