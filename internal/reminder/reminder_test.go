package reminder

import (
	"testing"
	"time"
)

// memFlags is an in-memory FlagStore for scheduler tests.
type memFlags struct {
	day string
}

func (m *memFlags) ClockedInOn() (string, error)    { return m.day, nil }
func (m *memFlags) SetClockedInOn(day string) error { m.day = day; return nil }
func (m *memFlags) ClearClockedInOn() error         { m.day = ""; return nil }

// ============================================================
// Midnight math
// ============================================================

func TestNextMidnight(t *testing.T) {
	loc := time.FixedZone("TST", 3*3600)
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, loc)

	next := NextMidnight(now)
	if next.Hour() != 0 || next.Minute() != 0 || next.Second() != 0 {
		t.Fatalf("next midnight = %v, want 00:00:00", next)
	}
	if next.Day() != 29 {
		t.Fatalf("next midnight day = %d, want 29", next.Day())
	}
	if !next.After(now) {
		t.Fatal("next midnight must be in the future")
	}
}

func TestNextMidnightJustBeforeMidnight(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	next := NextMidnight(now)
	if next.Year() != 2027 || next.Month() != time.January || next.Day() != 1 {
		t.Fatalf("year rollover broken: %v", next)
	}
}

func TestNextMidnightDST(t *testing.T) {
	// Spring-forward day in Europe/Berlin is 23h long; the delta must
	// come from the calendar, not a fixed 24h.
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2026, 3, 29, 0, 30, 0, 0, loc)
	next := NextMidnight(now)
	if next.Day() != 30 || next.Hour() != 0 {
		t.Fatalf("DST midnight = %v", next)
	}
	if d := next.Sub(now); d >= 24*time.Hour {
		t.Fatalf("spring-forward delta = %v, want < 24h", d)
	}
}

// ============================================================
// Eligibility and suppression
// ============================================================

func TestEligible(t *testing.T) {
	exempt := []string{"admin", "contractor"}
	if Eligible("admin", exempt) {
		t.Fatal("exempt role should not be eligible")
	}
	if !Eligible("sales", exempt) {
		t.Fatal("non-exempt role should be eligible")
	}
	if !Eligible("sales", nil) {
		t.Fatal("empty exemption list nags everyone")
	}
}

func TestShouldNagLifecycle(t *testing.T) {
	flags := &memFlags{}
	s := New(flags, []string{"admin"})
	now := time.Date(2026, 8, 28, 9, 0, 3, 0, time.UTC)

	gen := s.Arm()
	if !s.ShouldNag(gen, "sales", now) {
		t.Fatal("unclocked user should be nagged")
	}

	if err := s.MarkClockedIn(now); err != nil {
		t.Fatal(err)
	}
	if s.ShouldNag(gen, "sales", now.Add(Interval)) {
		t.Fatal("clocked-in user should not be nagged")
	}
}

func TestShouldNagExemptRole(t *testing.T) {
	s := New(&memFlags{}, []string{"admin"})
	gen := s.Arm()
	if s.ShouldNag(gen, "admin", time.Now()) {
		t.Fatal("exempt role should never be nagged")
	}
}

func TestSuppressionSurvivesRemount(t *testing.T) {
	// Re-mounting the scheduler over the same durable flags must not
	// resurrect the nag for an already-compliant user.
	flags := &memFlags{}
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	first := New(flags, nil)
	first.Arm()
	if err := first.MarkClockedIn(now); err != nil {
		t.Fatal(err)
	}

	second := New(flags, nil)
	gen := second.Arm()
	if second.ShouldNag(gen, "sales", now.Add(time.Hour)) {
		t.Fatal("remounted scheduler nagged a clocked-in user")
	}
}

func TestRearmInvalidatesOldTimers(t *testing.T) {
	s := New(&memFlags{}, nil)
	old := s.Arm()
	fresh := s.Arm()

	if s.ShouldNag(old, "sales", time.Now()) {
		t.Fatal("timer from a previous generation must be dropped")
	}
	if !s.ShouldNag(fresh, "sales", time.Now()) {
		t.Fatal("live generation should fire")
	}
}

func TestRolloverClearsFlagAndReschedules(t *testing.T) {
	flags := &memFlags{}
	s := New(flags, nil)
	gen := s.Arm()

	day1 := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	s.MarkClockedIn(day1)

	midnight := NextMidnight(day1)
	next, err := s.Rollover(midnight)
	if err != nil {
		t.Fatal(err)
	}
	if !next.After(midnight) {
		t.Fatal("rollover must schedule the following midnight")
	}
	if !s.ShouldNag(gen, "sales", midnight.Add(9*time.Hour)) {
		t.Fatal("nag should resume the day after rollover")
	}
}

func TestSuppressedOnlyForToday(t *testing.T) {
	flags := &memFlags{}
	s := New(flags, nil)
	day1 := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	s.MarkClockedIn(day1)

	if !s.Suppressed(day1.Add(time.Hour)) {
		t.Fatal("same-day suppression missing")
	}
	if s.Suppressed(day1.Add(24 * time.Hour)) {
		t.Fatal("yesterday's flag must not suppress today")
	}
}
