package session

import (
	"slices"
	"strings"
	"time"
)

// LogEntry is one historical attendance session as reported by the
// history endpoint. Open sessions appear with a nil ClockOut and
// running totals as of the request.
type LogEntry struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	Day            string     `json:"day"`
	ClockIn        time.Time  `json:"clock_in"`
	ClockOut       *time.Time `json:"clock_out"`
	WorkingSeconds int64      `json:"working_seconds"`
	BreakSeconds   int64      `json:"break_seconds"`
	DailyReport    string     `json:"daily_report"`
}

// HistoryPage is the paginated history response.
type HistoryPage struct {
	Logs  []LogEntry `json:"logs"`
	Total int        `json:"total"`
}

// DayTotal aggregates worked and break seconds for one day.
type DayTotal struct {
	Day            string
	WorkingSeconds int64
	BreakSeconds   int64
}

// TotalsByDay folds log entries into per-day totals, oldest day first.
// The read-side dashboard charts these.
func TotalsByDay(logs []LogEntry) []DayTotal {
	idx := make(map[string]int)
	var totals []DayTotal
	for _, l := range logs {
		i, ok := idx[l.Day]
		if !ok {
			i = len(totals)
			idx[l.Day] = i
			totals = append(totals, DayTotal{Day: l.Day})
		}
		totals[i].WorkingSeconds += l.WorkingSeconds
		totals[i].BreakSeconds += l.BreakSeconds
	}
	slices.SortFunc(totals, func(a, b DayTotal) int {
		return strings.Compare(a.Day, b.Day)
	})
	return totals
}
