package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/oserdar/punchr/internal/session"
)

func ToCSV(logs []session.LogEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Day", "Clock In", "Clock Out", "Worked (s)", "Worked", "Break (s)", "Report"}); err != nil {
		return err
	}

	for _, l := range logs {
		outStr := ""
		if l.ClockOut != nil {
			outStr = l.ClockOut.Local().Format(time.RFC3339)
		}

		row := []string{
			l.Day,
			l.ClockIn.Local().Format(time.RFC3339),
			outStr,
			fmt.Sprintf("%d", l.WorkingSeconds),
			formatDuration(l.WorkingSeconds),
			fmt.Sprintf("%d", l.BreakSeconds),
			l.DailyReport,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
