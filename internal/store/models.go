package store

import "time"

// Session is one attendance session: a clock-in, its breaks, and the
// closing report. Open sessions have a nil ClockOut; their totals are
// derived on read, not stored.
type Session struct {
	ID             int64
	UserID         string
	Day            string // YYYY-MM-DD, local to the server
	ClockIn        time.Time
	ClockOut       *time.Time
	WorkingSeconds int64 // final total, set at close
	BreakSeconds   int64 // final total, set at close
	DailyReport    string
	CreatedAt      time.Time
}

// Break is one break window inside a session. An open break has a nil End.
type Break struct {
	ID        int64
	SessionID int64
	Start     time.Time
	End       *time.Time
}

// HistoryFilter narrows session history queries.
type HistoryFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Flag is one durable client-local key/value flag.
type Flag struct {
	Key   string
	Value string
}
