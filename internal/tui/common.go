package tui

import (
	"fmt"
	"time"

	"github.com/oserdar/punchr/internal/session"
)

// viewState represents the currently active view.
type viewState int

const (
	viewClock viewState = iota
	viewHistory
	viewSettings
)

var viewNames = []string{"Time Clock", "History", "Settings"}

// --- Messages ---

// tickMsg drives the 1s display ticker. Cosmetic only: it never touches
// the snapshot cache, it just re-derives the display duration.
type tickMsg time.Time

// pollTickMsg fires when the 30s status poll is due. Stale generations
// (from before a re-arm) are dropped.
type pollTickMsg struct {
	gen int
}

// snapshotMsg carries a gateway response. seq is the request-issue
// sequence number used to discard out-of-order responses; action names
// the intent for side effects and fallback error messages.
type snapshotMsg struct {
	seq    uint64
	snap   session.Snapshot
	action string // "status", "clock_in", "clock_out", "start_break", "end_break"
	err    error
}

type historyDataMsg struct {
	logs []session.LogEntry
	err  error
}

// historyInvalidateMsg forces a history refetch after a clock-out so the
// just-closed session shows up.
type historyInvalidateMsg struct{}

type reportSavedMsg struct {
	err error
}

// nagTickMsg fires when a clock-in reminder is due.
type nagTickMsg struct {
	gen int
}

// midnightMsg fires at local midnight to reset the per-day reminder flag.
type midnightMsg struct {
	gen int
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}
