// Package reminder drives the "please clock in" nag cycle: an initial nag
// shortly after mount, a recurring nag while the user stays clocked out,
// and a self-rescheduling local-midnight rollover that resets the per-day
// suppression flag.
package reminder

import (
	"slices"
	"time"
)

const (
	// InitialDelay is the wait before the first nag after (re)arming.
	InitialDelay = 3 * time.Second
	// Interval is the cadence of repeat nags until clock-in or midnight.
	Interval = 3 * time.Minute
)

// DayFormat keys the per-day suppression flag.
const DayFormat = "2006-01-02"

// FlagStore is the durable client-local flag backend. Implementations
// persist across restarts; the scheduler owns the clear-at-midnight rule.
type FlagStore interface {
	ClockedInOn() (string, error)
	SetClockedInOn(day string) error
	ClearClockedInOn() error
}

// NextMidnight returns the next local 00:00:00 strictly after now. The
// delta is computed freshly from the calendar rather than adding 24h, so
// DST transitions shorten or lengthen the day correctly.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// Eligible reports whether a user with the given role receives nags.
// Exemption is an injected list rather than role branching inside the
// scheduler.
func Eligible(role string, exempt []string) bool {
	return !slices.Contains(exempt, role)
}

// Scheduler decides when nags fire and tracks the per-day suppression
// flag. Timer arming itself lives with the owning view; the scheduler
// hands out a generation stamp so that timers armed before a re-mount are
// recognized as stale and dropped, keeping re-arming idempotent.
type Scheduler struct {
	flags  FlagStore
	exempt []string
	gen    int
}

func New(flags FlagStore, exemptRoles []string) *Scheduler {
	return &Scheduler{flags: flags, exempt: exemptRoles}
}

// Arm starts a new timer generation, invalidating every previously armed
// timer, and returns the new generation stamp.
func (s *Scheduler) Arm() int {
	s.gen++
	return s.gen
}

// Current reports whether gen is the live timer generation.
func (s *Scheduler) Current(gen int) bool {
	return gen == s.gen
}

// Suppressed reports whether the user already clocked in on the given day.
func (s *Scheduler) Suppressed(now time.Time) bool {
	day, err := s.flags.ClockedInOn()
	if err != nil {
		return false
	}
	return day == now.Format(DayFormat)
}

// ShouldNag decides whether a due nag timer for the given generation may
// fire: the timer must still be live, the role must not be exempt, and the
// user must not have clocked in today.
func (s *Scheduler) ShouldNag(gen int, role string, now time.Time) bool {
	if !s.Current(gen) {
		return false
	}
	if !Eligible(role, s.exempt) {
		return false
	}
	return !s.Suppressed(now)
}

// MarkClockedIn records today's clock-in, suppressing further nags until
// the next midnight rollover.
func (s *Scheduler) MarkClockedIn(now time.Time) error {
	return s.flags.SetClockedInOn(now.Format(DayFormat))
}

// Rollover clears the suppression flag at midnight and returns the next
// rollover instant so the caller can re-arm a fresh timer.
func (s *Scheduler) Rollover(now time.Time) (time.Time, error) {
	err := s.flags.ClearClockedInOn()
	return NextMidnight(now), err
}
