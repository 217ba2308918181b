// Package server implements the authoritative side of the attendance
// contract: the session state machine, its persistence, and the HTTP
// surface the terminal client polls. Every mutation returns a fresh
// snapshot so clients never have to guess post-mutation state.
package server

import (
	"errors"
	"sync"
	"time"

	"github.com/oserdar/punchr/internal/session"
	"github.com/oserdar/punchr/internal/store"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrOnBreak          = errors.New("cannot clock out while on break")
	ErrNotOnBreak       = errors.New("no break in progress")
	ErrBreakOpen        = errors.New("break already in progress")
	ErrNoSessionToday   = errors.New("no session today")
	ErrReportLocked     = errors.New("report is no longer editable")
)

// Engine is the server-side session state machine. State lives in the
// store so it survives restarts; the mutex serializes transitions for
// concurrent requests (a second device may be mutating the same session).
type Engine struct {
	mu sync.Mutex
	db *store.Store

	now func() time.Time
}

func NewEngine(db *store.Store) *Engine {
	return &Engine{db: db, now: time.Now}
}

// Status computes the current snapshot for the user without mutating
// anything.
func (e *Engine) Status(userID string) (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(userID, e.now())
}

// ClockIn opens a new session. Rejected if one is already open.
func (e *Engine) ClockIn(userID string) (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.db.GetOpenSession(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if open != nil {
		return session.Snapshot{}, ErrAlreadyClockedIn
	}

	now := e.now()
	if _, err := e.db.OpenSession(userID, now); err != nil {
		return session.Snapshot{}, err
	}
	return e.snapshot(userID, now)
}

// StartBreak suspends work time. Requires an open session with no break
// in progress.
func (e *Engine) StartBreak(userID string) (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.db.GetOpenSession(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if open == nil {
		return session.Snapshot{}, ErrNotClockedIn
	}
	brk, err := e.db.GetOpenBreak(open.ID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if brk != nil {
		return session.Snapshot{}, ErrBreakOpen
	}

	now := e.now()
	if _, err := e.db.StartBreak(open.ID, now); err != nil {
		return session.Snapshot{}, err
	}
	return e.snapshot(userID, now)
}

// EndBreak resumes work time.
func (e *Engine) EndBreak(userID string) (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.db.GetOpenSession(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if open == nil {
		return session.Snapshot{}, ErrNotClockedIn
	}
	brk, err := e.db.GetOpenBreak(open.ID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if brk == nil {
		return session.Snapshot{}, ErrNotOnBreak
	}

	now := e.now()
	if err := e.db.EndBreak(brk.ID, now); err != nil {
		return session.Snapshot{}, err
	}
	return e.snapshot(userID, now)
}

// ClockOut closes the session. Rejected while a break is open and for
// reports below the minimum length; totals are finalized from the session
// timeline at the close instant.
func (e *Engine) ClockOut(userID, report string) (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.db.GetOpenSession(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if open == nil {
		return session.Snapshot{}, ErrNotClockedIn
	}
	brk, err := e.db.GetOpenBreak(open.ID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if brk != nil {
		return session.Snapshot{}, ErrOnBreak
	}
	if err := session.ValidateReport(report); err != nil {
		return session.Snapshot{}, err
	}

	now := e.now()
	breakTotal, err := e.db.ClosedBreakSeconds(open.ID)
	if err != nil {
		return session.Snapshot{}, err
	}
	working := int64(now.Sub(open.ClockIn).Seconds()) - breakTotal
	if working < 0 {
		working = 0
	}
	if err := e.db.CloseSession(open.ID, now, working, breakTotal, report); err != nil {
		return session.Snapshot{}, err
	}
	return e.snapshot(userID, now)
}

// UpdateTodayReport rewrites the report of today's session. Once the day
// rolls over the report is immutable.
func (e *Engine) UpdateTodayReport(userID, report string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := session.ValidateReport(report); err != nil {
		return err
	}

	sess, err := e.db.LatestSession(userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNoSessionToday
	}
	if sess.Day != e.now().Format("2006-01-02") {
		return ErrReportLocked
	}
	return e.db.UpdateDailyReport(sess.ID, report)
}

// History lists the user's sessions, newest first. Open sessions carry
// running totals as of the request.
func (e *Engine) History(f store.HistoryFilter) ([]session.LogEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, err := e.db.ListSessions(f)
	if err != nil {
		return nil, err
	}

	now := e.now()
	logs := make([]session.LogEntry, 0, len(sessions))
	for _, s := range sessions {
		entry := session.LogEntry{
			ID:             s.ID,
			UserID:         s.UserID,
			Day:            s.Day,
			ClockIn:        s.ClockIn,
			ClockOut:       s.ClockOut,
			WorkingSeconds: s.WorkingSeconds,
			BreakSeconds:   s.BreakSeconds,
			DailyReport:    s.DailyReport,
		}
		if s.ClockOut == nil {
			working, brk, err := e.runningTotals(&s, now)
			if err != nil {
				return nil, err
			}
			entry.WorkingSeconds = working
			entry.BreakSeconds = brk
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

// snapshot derives the wire snapshot from the timeline. Working seconds
// exclude closed breaks and the currently running one; break seconds are
// the running total of the current break only.
func (e *Engine) snapshot(userID string, now time.Time) (session.Snapshot, error) {
	open, err := e.db.GetOpenSession(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if open == nil {
		return session.Snapshot{Status: session.ClockedOut}, nil
	}

	brk, err := e.db.GetOpenBreak(open.ID)
	if err != nil {
		return session.Snapshot{}, err
	}
	closedBreaks, err := e.db.ClosedBreakSeconds(open.ID)
	if err != nil {
		return session.Snapshot{}, err
	}

	snap := session.Snapshot{
		Status:      session.Working,
		IsClockedIn: true,
		ClockInTime: &open.ClockIn,
	}
	working := int64(now.Sub(open.ClockIn).Seconds()) - closedBreaks
	if brk != nil {
		snap.Status = session.OnBreak
		snap.BreakStartTime = &brk.Start
		snap.BreakSeconds = int64(now.Sub(brk.Start).Seconds())
		working -= snap.BreakSeconds
	}
	if working < 0 {
		working = 0
	}
	snap.WorkingSeconds = working
	return snap, nil
}

func (e *Engine) runningTotals(s *store.Session, now time.Time) (working, breakTotal int64, err error) {
	closed, err := e.db.ClosedBreakSeconds(s.ID)
	if err != nil {
		return 0, 0, err
	}
	breakTotal = closed
	brk, err := e.db.GetOpenBreak(s.ID)
	if err != nil {
		return 0, 0, err
	}
	if brk != nil {
		breakTotal += int64(now.Sub(brk.Start).Seconds())
	}
	working = int64(now.Sub(s.ClockIn).Seconds()) - breakTotal
	if working < 0 {
		working = 0
	}
	return working, breakTotal, nil
}
