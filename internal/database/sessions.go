package database

import (
	"database/sql"
	"fmt"
)

// Session is one recorded optimization run.
type Session struct {
	ID                 int64
	ContentHash        string
	FocusKeyword       string
	BaselineScore      float64
	FinalScore         *float64
	Passes             int
	ComplianceAchieved bool
	TerminationReason  *string
	StartedAt          *string
	EndedAt            *string
}

// InsertSession creates a session row and returns its ID.
func (db *DB) InsertSession(contentHash, focusKeyword string, baselineScore float64) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO sessions (content_hash, focus_keyword, baseline_score) VALUES (?, ?, ?)`,
		contentHash, focusKeyword, baselineScore)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishSession records the outcome of a completed session.
func (db *DB) FinishSession(id int64, finalScore float64, passes int, compliance bool, reason string) error {
	complianceInt := 0
	if compliance {
		complianceInt = 1
	}
	_, err := db.conn.Exec(
		`UPDATE sessions SET final_score = ?, passes = ?, compliance_achieved = ?,
			termination_reason = ?, ended_at = datetime('now') WHERE id = ?`,
		finalScore, passes, complianceInt, reason, id)
	return err
}

// SaveReport stores the JSON report for a session.
func (db *DB) SaveReport(sessionID int64, reportJSON string) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO session_reports (session_id, report_json) VALUES (?, ?)`,
		sessionID, reportJSON)
	return err
}

// GetReport returns the stored report JSON for a session, or empty if none.
func (db *DB) GetReport(sessionID int64) (string, error) {
	row := db.conn.QueryRow("SELECT report_json FROM session_reports WHERE session_id = ?", sessionID)
	var report string
	err := row.Scan(&report)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return report, nil
}

// GetSession returns a single session by ID, or nil if absent.
func (db *DB) GetSession(id int64) (*Session, error) {
	row := db.conn.QueryRow(
		`SELECT id, content_hash, focus_keyword, baseline_score, final_score, passes,
			compliance_achieved, termination_reason, started_at, ended_at
		 FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetAllSessions returns sessions newest first.
func (db *DB) GetAllSessions() ([]Session, error) {
	rows, err := db.conn.Query(
		`SELECT id, content_hash, focus_keyword, baseline_score, final_score, passes,
			compliance_achieved, termination_reason, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var compliance int
		if err := rows.Scan(&s.ID, &s.ContentHash, &s.FocusKeyword, &s.BaselineScore,
			&s.FinalScore, &s.Passes, &compliance, &s.TerminationReason,
			&s.StartedAt, &s.EndedAt); err != nil {
			return nil, err
		}
		s.ComplianceAchieved = compliance != 0
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// LatestSession returns the most recent session, or nil if none exist.
func (db *DB) LatestSession() (*Session, error) {
	row := db.conn.QueryRow(
		`SELECT id, content_hash, focus_keyword, baseline_score, final_score, passes,
			compliance_achieved, termination_reason, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC, id DESC LIMIT 1`)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	var compliance int
	if err := row.Scan(&s.ID, &s.ContentHash, &s.FocusKeyword, &s.BaselineScore,
		&s.FinalScore, &s.Passes, &compliance, &s.TerminationReason,
		&s.StartedAt, &s.EndedAt); err != nil {
		return nil, err
	}
	s.ComplianceAchieved = compliance != 0
	return &s, nil
}

// Stats contains aggregate store statistics.
type Stats struct {
	TotalSessions     int
	CompliantSessions int
	CacheEntries      int
	LearnedStrategies int
}

// GetStats collects aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM sessions", &stats.TotalSessions},
		{"SELECT COUNT(*) FROM sessions WHERE compliance_achieved = 1", &stats.CompliantSessions},
		{"SELECT COUNT(*) FROM cache_entries", &stats.CacheEntries},
		{"SELECT COUNT(*) FROM strategy_outcomes", &stats.LearnedStrategies},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("collecting stats: %w", err)
		}
	}
	return stats, nil
}
