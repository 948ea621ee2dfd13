package database

import "database/sql"

// StrategyOutcome aggregates how a correction strategy fared for a
// content-signature and error-type combination.
type StrategyOutcome struct {
	Signature string
	ErrorType string
	Strategy  string
	Successes int
	Failures  int
}

// SuccessRate returns the fraction of attempts that succeeded.
func (o StrategyOutcome) SuccessRate() float64 {
	total := o.Successes + o.Failures
	if total == 0 {
		return 0
	}
	return float64(o.Successes) / float64(total)
}

// RecordStrategyOutcome increments the success or failure counter for a
// strategy, creating the row on first sight.
func (db *DB) RecordStrategyOutcome(signature, errorType, strategy string, success bool) error {
	successInc, failureInc := 0, 1
	if success {
		successInc, failureInc = 1, 0
	}
	_, err := db.conn.Exec(
		`INSERT INTO strategy_outcomes (signature, error_type, strategy, successes, failures)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (signature, error_type, strategy) DO UPDATE SET
			successes = successes + excluded.successes,
			failures = failures + excluded.failures,
			updated_at = datetime('now')`,
		signature, errorType, strategy, successInc, failureInc)
	return err
}

// PreferredStrategy returns the strategy with the best success record for
// a signature and error type, or empty if nothing succeeded yet.
func (db *DB) PreferredStrategy(signature, errorType string) (string, error) {
	row := db.conn.QueryRow(
		`SELECT strategy FROM strategy_outcomes
		 WHERE signature = ? AND error_type = ? AND successes > 0
		 ORDER BY CAST(successes AS REAL) / (successes + failures) DESC, successes DESC
		 LIMIT 1`,
		signature, errorType)

	var strategy string
	err := row.Scan(&strategy)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strategy, nil
}

// AllStrategyOutcomes returns every learned outcome, most used first.
func (db *DB) AllStrategyOutcomes() ([]StrategyOutcome, error) {
	rows, err := db.conn.Query(
		`SELECT signature, error_type, strategy, successes, failures
		 FROM strategy_outcomes ORDER BY successes + failures DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []StrategyOutcome
	for rows.Next() {
		var o StrategyOutcome
		if err := rows.Scan(&o.Signature, &o.ErrorType, &o.Strategy, &o.Successes, &o.Failures); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
