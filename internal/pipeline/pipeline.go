// Package pipeline sequences the per-dataset extraction stages and
// assembles the five output record sets. One call processes one dataset;
// failures are isolated to that dataset and reported as *DatasetError.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/roach88/metacheck/internal/bids"
	"github.com/roach88/metacheck/internal/check"
	"github.com/roach88/metacheck/internal/stats"
	"github.com/roach88/metacheck/internal/table"
)

// Options tune per-dataset processing.
type Options struct {
	// RestPrefixes override the resting-state task classification.
	// Empty means bids.DefaultRestPrefixes.
	RestPrefixes []string
}

// Result carries the five record sets for one successfully processed
// dataset, plus validation metadata and findings. The contract is
// all-five-or-none: a failed dataset produces no Result at all.
type Result struct {
	DatasetID string

	Basics       []check.PresenceRecord
	Counts       stats.Record
	Descriptors  []bids.DescriptorRecord
	Participants []table.ParticipantRecord
	Events       []table.EventRecord

	ParticipantValidation table.SchemaValidation
	EventValidation       map[string]table.SchemaValidation

	Findings []bids.Finding
}

// Process runs the full pipeline for one dataset with default options.
func Process(ctx context.Context, datasetID, datadir string) (*Result, error) {
	return ProcessWithOptions(ctx, datasetID, datadir, Options{})
}

// ProcessWithOptions runs layout resolution, presence checking, statistics
// compilation, and participant/event normalization for one dataset.
//
// Stages run in a fixed validated sequence; the first unrecoverable local
// error (structure undetectable, filesystem read failure, malformed
// required JSON) discards all partial results and returns a *DatasetError
// naming the stage that failed. Expected data conditions — missing
// optional files, undocumented columns — are accumulated as findings
// instead.
func ProcessWithOptions(ctx context.Context, datasetID, datadir string, opts Options) (*Result, error) {
	stage := StageStart
	log := slog.With("dataset", datasetID)

	// fail reports the stage that was being attempted when err occurred.
	fail := func(at Stage, err error) (*Result, error) {
		log.Warn("dataset processing failed", "stage", at, "error", err)
		return nil, &DatasetError{Dataset: datasetID, Stage: at, Cause: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(StageLayout, err)
	}

	layout, err := bids.Resolve(datadir, datasetID)
	if err != nil {
		return fail(StageLayout, err)
	}
	if stage, err = advance(stage, StageLayout); err != nil {
		return fail(StageLayout, err)
	}
	log.Debug("layout resolved", "kind", layout.Kind,
		"subjects", len(layout.Subjects), "tasks", len(layout.Tasks))

	result := &Result{
		DatasetID:       datasetID,
		Findings:        append([]bids.Finding(nil), layout.Findings...),
		EventValidation: map[string]table.SchemaValidation{},
	}

	entries := check.ExpectedEntries(layout.Tasks, opts.RestPrefixes)
	result.Basics = check.Check(layout, entries)
	if stage, err = advance(stage, StageBasics); err != nil {
		return fail(StageBasics, err)
	}

	result.Counts = stats.Compile(layout)
	result.Descriptors = layout.DescriptorRecords()
	if stage, err = advance(stage, StageStats); err != nil {
		return fail(StageStats, err)
	}

	participants, err := table.NormalizeParticipants(layout)
	if err != nil {
		return fail(StageParticipants, err)
	}
	result.Participants = participants.Records
	result.ParticipantValidation = participants.Validation
	result.Findings = append(result.Findings, participants.Findings...)
	if stage, err = advance(stage, StageParticipants); err != nil {
		return fail(StageParticipants, err)
	}

	for _, task := range layout.NonRestTasks(opts.RestPrefixes) {
		if err := ctx.Err(); err != nil {
			return fail(StageEvents, err)
		}
		events, err := table.NormalizeEvents(layout, task)
		if err != nil {
			return fail(StageEvents, err)
		}
		result.Events = append(result.Events, events.Records...)
		result.EventValidation[task] = events.Validation
		result.Findings = append(result.Findings, events.Findings...)
	}
	if stage, err = advance(stage, StageEvents); err != nil {
		return fail(StageEvents, err)
	}

	if _, err = advance(stage, StageDone); err != nil {
		return fail(StageDone, err)
	}
	log.Debug("dataset processed",
		"basics", len(result.Basics),
		"participants", len(result.Participants),
		"events", len(result.Events),
		"findings", len(result.Findings))
	return result, nil
}
