package store

import (
	"database/sql"
	"fmt"
	"time"
)

// StartBreak opens a break window inside the session.
func (s *Store) StartBreak(sessionID int64, at time.Time) (*Break, error) {
	res, err := s.db.Exec(
		`INSERT INTO breaks (session_id, start_time) VALUES (?, ?)`,
		sessionID, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("start break: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetBreak(id)
}

// EndBreak closes an open break window.
func (s *Store) EndBreak(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE breaks SET end_time = ? WHERE id = ?`, at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("end break %d: %w", id, err)
	}
	return nil
}

func (s *Store) GetBreak(id int64) (*Break, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, start_time, end_time FROM breaks WHERE id = ?`, id,
	)
	b, err := scanBreak(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get break %d: %w", id, err)
	}
	return b, nil
}

// GetOpenBreak returns the session's open break, or nil if none.
func (s *Store) GetOpenBreak(sessionID int64) (*Break, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, start_time, end_time FROM breaks
		 WHERE session_id = ? AND end_time IS NULL ORDER BY id DESC LIMIT 1`, sessionID,
	)
	b, err := scanBreak(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open break: %w", err)
	}
	return b, nil
}

// ClosedBreakSeconds sums the duration of all finished breaks in a session.
func (s *Store) ClosedBreakSeconds(sessionID int64) (int64, error) {
	rows, err := s.db.Query(
		`SELECT start_time, end_time FROM breaks WHERE session_id = ? AND end_time IS NOT NULL`, sessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("sum breaks: %w", err)
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var startStr, endStr string
		if err := rows.Scan(&startStr, &endStr); err != nil {
			return 0, err
		}
		start, _ := time.Parse(time.RFC3339, startStr)
		end, _ := time.Parse(time.RFC3339, endStr)
		total += int64(end.Sub(start).Seconds())
	}
	return total, rows.Err()
}

func scanBreak(scan func(...any) error) (*Break, error) {
	b := &Break{}
	var start string
	var end sql.NullString

	if err := scan(&b.ID, &b.SessionID, &start, &end); err != nil {
		return nil, err
	}
	b.Start, _ = time.Parse(time.RFC3339, start)
	if end.Valid {
		t, _ := time.Parse(time.RFC3339, end.String)
		b.End = &t
	}
	return b, nil
}
