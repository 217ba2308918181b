package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinReportLen is the minimum daily report length required to close a
// session or save a report edit. The same policy gates the clock-out
// dialog, the report editor, and the server-side check.
const MinReportLen = 50

// ReportLen counts the characters of a report the way the gate measures
// them: runes, after trimming surrounding whitespace.
func ReportLen(content string) int {
	return utf8.RuneCountInString(strings.TrimSpace(content))
}

// ReportTooShortError is returned when a report fails the length policy.
type ReportTooShortError struct {
	Have int
}

func (e *ReportTooShortError) Error() string {
	return fmt.Sprintf("daily report must be at least %d characters (have %d)", MinReportLen, e.Have)
}

// ValidateReport checks the daily report against the minimum-length policy.
func ValidateReport(content string) error {
	if n := ReportLen(content); n < MinReportLen {
		return &ReportTooShortError{Have: n}
	}
	return nil
}

// CanClockOut is the client-side clock-out gate. Closing a session requires
// an open, not-on-break session and a report that passes the length policy.
// The server remains the final authority; this only prevents requests that
// are certain to be rejected.
func CanClockOut(status Status, report string) error {
	switch status {
	case ClockedOut:
		return fmt.Errorf("no open session to clock out of")
	case OnBreak:
		return fmt.Errorf("end your break before clocking out")
	}
	return ValidateReport(report)
}
