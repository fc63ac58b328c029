package runlog

import (
	"context"
	"fmt"
	"time"
)

// Outcome statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Outcome is one dataset's result within one run.
type Outcome struct {
	RunID      string
	DatasetID  string
	Status     string
	Stage      string
	Message    string
	FinishedAt time.Time
}

// BeginRun records the start of a batch run.
func (l *Log) BeginRun(ctx context.Context, runID, dataDir string, workers int) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, data_dir, workers)
		VALUES (?, ?, ?, ?)
	`, runID, time.Now().UTC().Format(time.RFC3339), dataDir, workers)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordOutcome upserts one dataset's outcome for a run. A retry within
// the same run overwrites the earlier row; outcomes from different runs
// coexist.
func (l *Log) RecordOutcome(ctx context.Context, o Outcome) error {
	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, dataset_id, status, stage, message, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, dataset_id) DO UPDATE SET
			status = excluded.status,
			stage = excluded.stage,
			message = excluded.message,
			finished_at = excluded.finished_at
	`, o.RunID, o.DatasetID, o.Status, o.Stage, o.Message, finished.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record outcome %s/%s: %w", o.RunID, o.DatasetID, err)
	}
	return nil
}
