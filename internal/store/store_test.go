package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/punchr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen should succeed without re-migrating
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

// ============================================================
// Sessions
// ============================================================

func TestOpenAndGetSession(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	sess, err := s.OpenSession("u1", at)
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID != "u1" || sess.Day != "2026-08-28" {
		t.Fatalf("bad session: %+v", sess)
	}
	if sess.ClockOut != nil {
		t.Fatal("new session should be open")
	}
	if !sess.ClockIn.Equal(at) {
		t.Fatalf("clock_in = %v, want %v", sess.ClockIn, at)
	}
}

func TestDoubleOpenRejected(t *testing.T) {
	s := newTestStore(t)
	at := time.Now()

	if _, err := s.OpenSession("u1", at); err != nil {
		t.Fatal(err)
	}
	if _, err := s.OpenSession("u1", at.Add(time.Minute)); err == nil {
		t.Fatal("second open session for same user should fail")
	}
	// A different user is unaffected.
	if _, err := s.OpenSession("u2", at); err != nil {
		t.Fatal(err)
	}
}

func TestGetOpenSession(t *testing.T) {
	s := newTestStore(t)

	open, err := s.GetOpenSession("u1")
	if err != nil {
		t.Fatal(err)
	}
	if open != nil {
		t.Fatal("no session yet, want nil")
	}

	sess, _ := s.OpenSession("u1", time.Now())
	open, err = s.GetOpenSession("u1")
	if err != nil {
		t.Fatal(err)
	}
	if open == nil || open.ID != sess.ID {
		t.Fatal("open session not found")
	}
}

func TestCloseSession(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	sess, _ := s.OpenSession("u1", at)

	out := at.Add(8 * time.Hour)
	if err := s.CloseSession(sess.ID, out, 27000, 1800, "long enough report"); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSession(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ClockOut == nil || !got.ClockOut.Equal(out) {
		t.Fatal("clock_out not persisted")
	}
	if got.WorkingSeconds != 27000 || got.BreakSeconds != 1800 {
		t.Fatalf("totals = %d/%d", got.WorkingSeconds, got.BreakSeconds)
	}
	if got.DailyReport != "long enough report" {
		t.Fatal("report not persisted")
	}

	// Closed session no longer counts as open.
	open, _ := s.GetOpenSession("u1")
	if open != nil {
		t.Fatal("session should be closed")
	}
}

func TestUpdateDailyReport(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.OpenSession("u1", time.Now())

	if err := s.UpdateDailyReport(sess.ID, "rewritten"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSession(sess.ID)
	if got.DailyReport != "rewritten" {
		t.Fatal("report not updated")
	}
}

func TestLatestSession(t *testing.T) {
	s := newTestStore(t)

	none, err := s.LatestSession("u1")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatal("no sessions yet, want nil")
	}

	at := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	old, _ := s.OpenSession("u1", at)
	s.CloseSession(old.ID, at.Add(time.Hour), 3600, 0, "r")
	recent, _ := s.OpenSession("u1", at.Add(24*time.Hour))

	got, err := s.LatestSession("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != recent.ID {
		t.Fatal("latest session should be the newest clock-in")
	}
}

func TestListSessionsFilter(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		at := base.AddDate(0, 0, i)
		sess, err := s.OpenSession("u1", at)
		if err != nil {
			t.Fatal(err)
		}
		s.CloseSession(sess.ID, at.Add(8*time.Hour), 28800, 0, "r")
	}
	other, _ := s.OpenSession("u2", base)
	s.CloseSession(other.ID, base.Add(time.Hour), 3600, 0, "r")

	all, err := s.ListSessions(HistoryFilter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d sessions, want 5", len(all))
	}
	// Newest first.
	if !all[0].ClockIn.After(all[4].ClockIn) {
		t.Fatal("sessions not ordered newest first")
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 3)
	ranged, err := s.ListSessions(HistoryFilter{UserID: "u1", From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 3 {
		t.Fatalf("got %d sessions in range, want 3", len(ranged))
	}

	limited, _ := s.ListSessions(HistoryFilter{UserID: "u1", Limit: 2})
	if len(limited) != 2 {
		t.Fatalf("limit ignored: got %d", len(limited))
	}
}

// ============================================================
// Breaks
// ============================================================

func TestBreakLifecycle(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.OpenSession("u1", time.Now())

	open, err := s.GetOpenBreak(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if open != nil {
		t.Fatal("no break yet")
	}

	start := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	b, err := s.StartBreak(sess.ID, start)
	if err != nil {
		t.Fatal(err)
	}
	open, _ = s.GetOpenBreak(sess.ID)
	if open == nil || open.ID != b.ID {
		t.Fatal("open break not found")
	}

	if err := s.EndBreak(b.ID, start.Add(30*time.Minute)); err != nil {
		t.Fatal(err)
	}
	open, _ = s.GetOpenBreak(sess.ID)
	if open != nil {
		t.Fatal("break should be closed")
	}

	total, err := s.ClosedBreakSeconds(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1800 {
		t.Fatalf("break total = %d, want 1800", total)
	}
}

func TestClosedBreakSecondsExcludesOpen(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.OpenSession("u1", time.Now())
	start := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	b1, _ := s.StartBreak(sess.ID, start)
	s.EndBreak(b1.ID, start.Add(10*time.Minute))
	s.StartBreak(sess.ID, start.Add(time.Hour)) // still open

	total, _ := s.ClosedBreakSeconds(sess.ID)
	if total != 600 {
		t.Fatalf("open break leaked into total: %d", total)
	}
}

// ============================================================
// Flags
// ============================================================

func TestFlagRoundTrip(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetFlag("missing")
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Fatal("missing flag should read empty")
	}

	if err := s.SetFlag("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFlag("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, _ = s.GetFlag("k")
	if v != "v2" {
		t.Fatalf("flag = %q, want v2", v)
	}

	if err := s.ClearFlag("k"); err != nil {
		t.Fatal(err)
	}
	v, _ = s.GetFlag("k")
	if v != "" {
		t.Fatal("cleared flag should read empty")
	}
}

func TestClockedInOnFlag(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetClockedInOn("2026-08-28"); err != nil {
		t.Fatal(err)
	}
	day, err := s.ClockedInOn()
	if err != nil {
		t.Fatal(err)
	}
	if day != "2026-08-28" {
		t.Fatalf("clocked_in_on = %q", day)
	}

	if err := s.ClearClockedInOn(); err != nil {
		t.Fatal(err)
	}
	day, _ = s.ClockedInOn()
	if day != "" {
		t.Fatal("flag should be cleared at rollover")
	}
}

func TestReminderDisabledFlag(t *testing.T) {
	s := newTestStore(t)

	if s.RemindersDisabled() {
		t.Fatal("reminders enabled by default")
	}
	s.SetRemindersDisabled(true)
	if !s.RemindersDisabled() {
		t.Fatal("disable flag not set")
	}
	s.SetRemindersDisabled(false)
	if s.RemindersDisabled() {
		t.Fatal("disable flag not cleared")
	}
}

func TestClientPrefFlags(t *testing.T) {
	s := newTestStore(t)

	if n := s.PollIntervalSeconds(); n != 0 {
		t.Fatalf("unset poll override = %d, want 0", n)
	}
	if err := s.SetPollIntervalSeconds(15); err != nil {
		t.Fatal(err)
	}
	if n := s.PollIntervalSeconds(); n != 15 {
		t.Fatalf("poll override = %d, want 15", n)
	}

	// Garbage values read as unset rather than erroring.
	s.SetFlag(flagPollInterval, "soon")
	if n := s.PollIntervalSeconds(); n != 0 {
		t.Fatalf("invalid poll override = %d, want 0", n)
	}

	if dir := s.ExportDir(); dir != "" {
		t.Fatalf("default export dir = %q, want empty", dir)
	}
	if err := s.SetExportDir("/tmp/out"); err != nil {
		t.Fatal(err)
	}
	if dir := s.ExportDir(); dir != "/tmp/out" {
		t.Fatalf("export dir = %q", dir)
	}
}
