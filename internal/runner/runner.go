// Package runner executes the per-dataset pipeline over many datasets with
// a bounded worker pool. Workers share nothing: each owns its layout and
// intermediate records for the single dataset it is processing, and
// per-dataset failures are recorded, never propagated as a batch abort.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/metacheck/internal/output"
	"github.com/roach88/metacheck/internal/pipeline"
	"github.com/roach88/metacheck/internal/runlog"
)

// progressEvery controls batch progress logging cadence.
const progressEvery = 10

// Options configure one batch run.
type Options struct {
	// Datasets lists the dataset IDs to process.
	Datasets []string

	// DataDir holds one subdirectory per dataset.
	DataDir string

	// OutDir receives the five per-dataset CSV files for each dataset.
	OutDir string

	// Workers bounds concurrent dataset processing; values below 1 are
	// treated as 1.
	Workers int

	// RestPrefixes override resting-state task classification.
	RestPrefixes []string

	// Log, when non-nil, records per-dataset outcomes.
	Log *runlog.Log

	// Resume skips datasets the log already shows as completed.
	Resume bool
}

// Failure is the (dataset, stage, message) tuple surfaced for each failed
// dataset, from which a retriable-dataset list can be rebuilt.
type Failure struct {
	DatasetID string
	Stage     string
	Message   string
}

// Summary reports one batch run.
type Summary struct {
	RunID     string
	Processed int
	Succeeded int
	Skipped   int
	Failures  []Failure
	Elapsed   time.Duration
}

// Run processes every dataset in opts.Datasets, writing per-dataset
// outputs and recording outcomes. It returns an error only for batch-level
// problems (log unavailable, output dir not creatable); individual dataset
// failures land in the summary.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	datasets := opts.Datasets
	skipped := 0
	if opts.Resume && opts.Log != nil {
		done, err := opts.Log.Completed(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume: %w", err)
		}
		remaining := make([]string, 0, len(datasets))
		for _, id := range datasets {
			if done[id] {
				skipped++
				continue
			}
			remaining = append(remaining, id)
		}
		datasets = remaining
	}

	if opts.Log != nil {
		if err := opts.Log.BeginRun(ctx, runID, opts.DataDir, workers); err != nil {
			return nil, err
		}
	}

	slog.Info("batch started", "run", runID, "datasets", len(datasets),
		"skipped", skipped, "workers", workers)
	start := time.Now()

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- processOne(ctx, id, opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range datasets {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &Summary{RunID: runID, Skipped: skipped}
	for res := range results {
		summary.Processed++
		if res.failure == nil {
			summary.Succeeded++
		} else {
			summary.Failures = append(summary.Failures, *res.failure)
		}
		if opts.Log != nil {
			if err := opts.Log.RecordOutcome(ctx, res.outcome(runID)); err != nil {
				slog.Error("record outcome", "dataset", res.datasetID, "error", err)
			}
		}
		if summary.Processed%progressEvery == 0 {
			slog.Info("batch progress", "completed", summary.Processed, "total", len(datasets))
		}
	}

	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].DatasetID < summary.Failures[j].DatasetID
	})
	summary.Elapsed = time.Since(start)
	slog.Info("batch finished", "run", runID, "succeeded", summary.Succeeded,
		"failed", len(summary.Failures), "elapsed", summary.Elapsed)
	return summary, nil
}

// DiscoverDatasets lists the dataset directories under dataDir, by
// convention the subdirectories named ds*.
func DiscoverDatasets(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "ds") {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type result struct {
	datasetID string
	failure   *Failure
}

func (r result) outcome(runID string) runlog.Outcome {
	o := runlog.Outcome{RunID: runID, DatasetID: r.datasetID, Status: runlog.StatusOK}
	if r.failure != nil {
		o.Status = runlog.StatusFailed
		o.Stage = r.failure.Stage
		o.Message = r.failure.Message
	}
	return o
}

func processOne(ctx context.Context, datasetID string, opts Options) result {
	res, err := pipeline.ProcessWithOptions(ctx, datasetID, opts.DataDir,
		pipeline.Options{RestPrefixes: opts.RestPrefixes})
	if err != nil {
		return result{datasetID: datasetID, failure: toFailure(datasetID, err)}
	}
	if _, err := output.WriteDataset(opts.OutDir, res); err != nil {
		return result{datasetID: datasetID, failure: &Failure{
			DatasetID: datasetID,
			Stage:     "output_written",
			Message:   err.Error(),
		}}
	}
	return result{datasetID: datasetID}
}

func toFailure(datasetID string, err error) *Failure {
	var dsErr *pipeline.DatasetError
	if errors.As(err, &dsErr) {
		return &Failure{DatasetID: datasetID, Stage: string(dsErr.Stage), Message: dsErr.Message()}
	}
	return &Failure{DatasetID: datasetID, Message: err.Error()}
}
