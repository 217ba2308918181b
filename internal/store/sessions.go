package store

import (
	"database/sql"
	"fmt"
	"time"
)

const sessionCols = `id, user_id, day, clock_in, clock_out, working_seconds, break_seconds, daily_report, created_at`

// OpenSession starts a new session for the user. The partial unique index
// on open sessions makes a double clock-in fail at the database layer too.
func (s *Store) OpenSession(userID string, at time.Time) (*Session, error) {
	res, err := s.db.Exec(
		`INSERT INTO sessions (user_id, day, clock_in, created_at) VALUES (?, ?, ?, ?)`,
		userID, at.Format("2006-01-02"), at.UTC().Format(time.RFC3339), at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(id)
}

// CloseSession finalizes a session with its totals and report.
func (s *Store) CloseSession(id int64, at time.Time, workingSeconds, breakSeconds int64, report string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET clock_out = ?, working_seconds = ?, break_seconds = ?, daily_report = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), workingSeconds, breakSeconds, report, id,
	)
	if err != nil {
		return fmt.Errorf("close session %d: %w", id, err)
	}
	return nil
}

func (s *Store) GetSession(id int64) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return sess, nil
}

// GetOpenSession returns the user's open session, or nil if none.
func (s *Store) GetOpenSession(userID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE user_id = ? AND clock_out IS NULL`, userID,
	)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return sess, nil
}

// UpdateDailyReport rewrites a session's report.
func (s *Store) UpdateDailyReport(id int64, report string) error {
	_, err := s.db.Exec(`UPDATE sessions SET daily_report = ? WHERE id = ?`, report, id)
	return err
}

// LatestSession returns the user's most recent session, open or closed,
// or nil if none. Same-day report edits resolve their target through it.
func (s *Store) LatestSession(userID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE user_id = ? ORDER BY clock_in DESC, id DESC LIMIT 1`,
		userID,
	)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}

// ListSessions returns session history, newest first.
func (s *Store) ListSessions(f HistoryFilter) ([]Session, error) {
	query := `SELECT ` + sessionCols + ` FROM sessions WHERE 1=1`
	var args []any

	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.From != nil {
		query += ` AND day >= ?`
		args = append(args, f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		query += ` AND day <= ?`
		args = append(args, f.To.Format("2006-01-02"))
	}
	query += ` ORDER BY clock_in DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func scanSession(scan func(...any) error) (*Session, error) {
	sess := &Session{}
	var clockIn, createdAt string
	var clockOut sql.NullString

	err := scan(&sess.ID, &sess.UserID, &sess.Day, &clockIn, &clockOut,
		&sess.WorkingSeconds, &sess.BreakSeconds, &sess.DailyReport, &createdAt)
	if err != nil {
		return nil, err
	}
	sess.ClockIn, _ = time.Parse(time.RFC3339, clockIn)
	if clockOut.Valid {
		t, _ := time.Parse(time.RFC3339, clockOut.String)
		sess.ClockOut = &t
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return sess, nil
}
