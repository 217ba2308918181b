package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Flag keys. Everything in the flags table is client-owned local state;
// none of it is ever sent to the server.
const (
	flagClockedInOn   = "clocked_in_on"   // YYYY-MM-DD, cleared at local midnight
	flagPollInterval  = "poll_interval"   // seconds, status poll override
	flagReminderOff   = "reminders_off"   // "1" disables the nag cycle
	flagExportDir     = "export_dir"      // history export target directory
)

// GetFlag reads a flag; a missing key returns "" without error.
func (s *Store) GetFlag(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM flags WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get flag %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetFlag(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO flags (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) ClearFlag(key string) error {
	_, err := s.db.Exec(`DELETE FROM flags WHERE key = ?`, key)
	return err
}

// --- reminder.FlagStore ---

// ClockedInOn returns the day the user last clocked in, or "".
func (s *Store) ClockedInOn() (string, error) {
	return s.GetFlag(flagClockedInOn)
}

func (s *Store) SetClockedInOn(day string) error {
	return s.SetFlag(flagClockedInOn, day)
}

func (s *Store) ClearClockedInOn() error {
	return s.ClearFlag(flagClockedInOn)
}

// --- client preferences ---

// PollIntervalSeconds returns the stored poll override, or 0 when unset
// so the caller can fall back to its configured default.
func (s *Store) PollIntervalSeconds() int {
	v, err := s.GetFlag(flagPollInterval)
	if err != nil || v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func (s *Store) SetPollIntervalSeconds(n int) error {
	return s.SetFlag(flagPollInterval, strconv.Itoa(n))
}

func (s *Store) RemindersDisabled() bool {
	v, err := s.GetFlag(flagReminderOff)
	return err == nil && v == "1"
}

func (s *Store) SetRemindersDisabled(off bool) error {
	if !off {
		return s.ClearFlag(flagReminderOff)
	}
	return s.SetFlag(flagReminderOff, "1")
}

// ExportDir returns the export target directory, or "" for the current
// directory.
func (s *Store) ExportDir() string {
	v, _ := s.GetFlag(flagExportDir)
	return v
}

func (s *Store) SetExportDir(dir string) error {
	return s.SetFlag(flagExportDir, dir)
}
