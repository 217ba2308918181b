package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/oserdar/punchr/internal/session"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Sessions   []jsonEntry `json:"sessions"`
}

type jsonEntry struct {
	Day        string `json:"day"`
	ClockIn    string `json:"clock_in"`
	ClockOut   string `json:"clock_out,omitempty"`
	WorkedSec  int64  `json:"worked_seconds"`
	Worked     string `json:"worked"`
	BreakSec   int64  `json:"break_seconds"`
	Report     string `json:"daily_report,omitempty"`
}

func ToJSON(logs []session.LogEntry, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(logs),
	}

	for _, l := range logs {
		outStr := ""
		if l.ClockOut != nil {
			outStr = l.ClockOut.Local().Format(time.RFC3339)
		}

		export.Sessions = append(export.Sessions, jsonEntry{
			Day:       l.Day,
			ClockIn:   l.ClockIn.Local().Format(time.RFC3339),
			ClockOut:  outStr,
			WorkedSec: l.WorkingSeconds,
			Worked:    formatDuration(l.WorkingSeconds),
			BreakSec:  l.BreakSeconds,
			Report:    l.DailyReport,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
