package logging

// #region imports
import (
	"database/sql"
	"fmt"
	"time"
)

// #endregion imports

// #region types

// RunEntry records one estimator invocation in the run log.
type RunEntry struct {
	RunID     string
	Kind      string // "estimate" | "train"
	Detail    string // JSON payload (result or loss summary)
	Reason    string
	CreatedAt time.Time
}

// #endregion types

// #region log-run

// LogRun writes a run-log entry to the run_log table.
func LogRun(db *sql.DB, entry RunEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, kind, detail, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Kind,
		nullIfEmpty(entry.Detail),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// #endregion log-run

// #region list-entries

// ListEntries returns the most recent run-log entries.
func ListEntries(db *sql.DB, limit int) ([]RunEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, kind, detail, reason, created_at
		 FROM run_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list run log: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var detail, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Kind, &detail, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run log: %w", err)
		}
		e.Detail = detail.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-entries

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
