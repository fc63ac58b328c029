package runlog

import (
	"context"
	"fmt"
)

// Failures returns the failed outcomes of one run, ordered by dataset.
// This is the retriable-dataset list for that run.
func (l *Log) Failures(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, dataset_id, status, stage, message
		FROM outcomes
		WHERE run_id = ? AND status = ?
		ORDER BY dataset_id
	`, runID, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.DatasetID, &o.Status, &o.Stage, &o.Message); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Completed returns the set of dataset IDs with an ok outcome in any run.
// Used by resume to skip datasets already processed successfully.
func (l *Log) Completed(ctx context.Context) (map[string]bool, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT DISTINCT dataset_id FROM outcomes WHERE status = ?
	`, StatusOK)
	if err != nil {
		return nil, fmt.Errorf("query completed: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed row: %w", err)
		}
		done[id] = true
	}
	return done, rows.Err()
}
