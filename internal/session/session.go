package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the server-owned attendance session state.
type Status int

const (
	ClockedOut Status = iota
	Working
	OnBreak
)

var statusNames = map[Status]string{
	ClockedOut: "clocked_out",
	Working:    "working",
	OnBreak:    "on_break",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus maps a wire string back to a Status.
func ParseStatus(s string) (Status, error) {
	for st, n := range statusNames {
		if n == s {
			return st, nil
		}
	}
	return ClockedOut, fmt.Errorf("unknown session status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Snapshot is a server-reported capture of the session, used as the
// reconciliation anchor for locally derived display durations. The client
// never mutates one; it only replaces it with a fresher fetch.
type Snapshot struct {
	Status         Status     `json:"status"`
	IsClockedIn    bool       `json:"is_clocked_in"`
	WorkingSeconds int64      `json:"working_seconds"`
	BreakSeconds   int64      `json:"break_seconds"`
	ClockInTime    *time.Time `json:"clock_in_time"`
	BreakStartTime *time.Time `json:"break_start_time"`

	// TakenAt is stamped client-side at decode time; it never travels
	// on the wire.
	TakenAt time.Time `json:"-"`
}

// Clock reconciles server snapshots with a local display counter. Base
// durations always come from the last applied snapshot; Tick only derives
// the seconds elapsed since that snapshot was taken. Snapshots are applied
// in issue order via a monotonic sequence number, so a stale poll that
// resolves late can never roll back a fresher state.
type Clock struct {
	snap   Snapshot
	anchor time.Time

	nextSeq     uint64
	appliedSeq  uint64
	haveApplied bool
}

// NewClock returns a clock with no session (ClockedOut, zero display).
func NewClock() *Clock {
	return &Clock{}
}

// NextSeq issues the sequence number for an outgoing request. Callers must
// obtain it before dispatching and pass it back to Sync with the response.
func (c *Clock) NextSeq() uint64 {
	c.nextSeq++
	return c.nextSeq
}

// Sync replaces the cached snapshot if seq is not older than the last
// applied one. It returns whether the snapshot was applied. Applying the
// same (seq, snapshot) twice yields the same subsequent Tick trajectory:
// the anchor is the snapshot's own capture instant, not the call instant.
func (c *Clock) Sync(seq uint64, snap Snapshot) bool {
	if c.haveApplied && seq < c.appliedSeq {
		return false
	}

	// A strictly newer clock-in means a new session; stale local state
	// from the previous one must not leak into it.
	if c.haveApplied && newerSession(c.snap.ClockInTime, snap.ClockInTime) {
		c.snap = Snapshot{}
	}

	c.snap = snap
	c.anchor = snap.TakenAt
	c.appliedSeq = seq
	c.haveApplied = true
	return true
}

func newerSession(prev, next *time.Time) bool {
	return prev != nil && next != nil && next.After(*prev)
}

// Status reports the cached session status.
func (c *Clock) Status() Status {
	return c.snap.Status
}

// IsClockedIn reports whether the cached snapshot has an open session.
func (c *Clock) IsClockedIn() bool {
	return c.snap.IsClockedIn
}

// Snapshot returns the cached snapshot.
func (c *Clock) Snapshot() Snapshot {
	return c.snap
}

// Tick derives the display duration in seconds at the given instant. It is
// a pure function of the cached snapshot: base seconds plus whole seconds
// elapsed since the snapshot was taken, never negative. While ClockedOut
// the display is always zero. Tick never advances the anchor; only Sync
// does.
func (c *Clock) Tick(now time.Time) int64 {
	var base int64
	switch c.snap.Status {
	case Working:
		base = c.snap.WorkingSeconds
	case OnBreak:
		base = c.snap.BreakSeconds
	default:
		return 0
	}

	elapsed := int64(now.Sub(c.anchor) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return base + elapsed
}
