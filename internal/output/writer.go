// Package output persists record sets as CSV: five per-dataset files with
// fixed column schemas, and aggregate files grown with a
// backup-then-append discipline.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/metacheck/internal/pipeline"
	"github.com/roach88/metacheck/internal/stats"
)

// The five record-set kinds, in output order.
const (
	KindBasics       = "basics"
	KindCounts       = "counts"
	KindDescriptors  = "descriptors"
	KindParticipants = "participants"
	KindEvents       = "events"
)

// Kinds lists every record-set kind in canonical order.
var Kinds = []string{KindBasics, KindCounts, KindDescriptors, KindParticipants, KindEvents}

var headers = map[string][]string{
	KindBasics:       {"dataset_id", "file_entry", "required_level", "location", "n_matches"},
	KindCounts:       {"dataset_id", "kind", "n_subjects", "session_min", "session_max", "n_tasks", "n_runs", "task_runs", "has_nifti", "has_bold", "has_t1w", "has_t2w", "has_dwi"},
	KindDescriptors:  {"dataset_id", "descriptor_key", "descriptor_value"},
	KindParticipants: {"dataset_id", "subject_id", "column_key", "value", "documented", "schema_present"},
	KindEvents:       {"dataset_id", "subject_id", "task", "run", "column_key", "value", "documented", "schema_present"},
}

// Header returns the fixed column schema for a record-set kind.
func Header(kind string) []string {
	return headers[kind]
}

// Render flattens a pipeline result into CSV rows per record-set kind.
func Render(res *pipeline.Result) map[string][][]string {
	out := map[string][][]string{}

	for _, r := range res.Basics {
		out[KindBasics] = append(out[KindBasics], []string{
			r.DatasetID,
			r.Entry.Name,
			string(r.Entry.Level),
			string(r.Location),
			strconv.Itoa(r.Matches),
		})
	}

	c := res.Counts
	out[KindCounts] = [][]string{{
		c.DatasetID,
		string(c.Kind),
		strconv.Itoa(c.NumSubjects),
		strconv.Itoa(c.SessionMin),
		strconv.Itoa(c.SessionMax),
		strconv.Itoa(c.NumTasks),
		strconv.Itoa(c.NumRuns),
		stats.FormatRunsPerTask(c.RunsPerTask),
		strconv.FormatBool(c.HasNIfTI),
		strconv.FormatBool(c.HasBOLD),
		strconv.FormatBool(c.HasT1w),
		strconv.FormatBool(c.HasT2w),
		strconv.FormatBool(c.HasDWI),
	}}

	for _, r := range res.Descriptors {
		out[KindDescriptors] = append(out[KindDescriptors], []string{
			r.DatasetID, r.Key, r.Value,
		})
	}

	partSchema := strconv.FormatBool(res.ParticipantValidation.SchemaPresent)
	for _, r := range res.Participants {
		out[KindParticipants] = append(out[KindParticipants], []string{
			r.DatasetID,
			r.Subject,
			r.Key,
			r.Value,
			strconv.FormatBool(r.Documented),
			partSchema,
		})
	}

	for _, r := range res.Events {
		out[KindEvents] = append(out[KindEvents], []string{
			r.DatasetID,
			r.Subject,
			r.Task,
			strconv.Itoa(r.Run),
			r.Key,
			r.Value,
			strconv.FormatBool(r.Documented),
			strconv.FormatBool(res.EventValidation[r.Task].SchemaPresent),
		})
	}

	return out
}

// WriteDataset writes the five per-dataset CSV files into dir, creating it
// if needed. Returns the written paths in Kinds order. Record sets that
// are empty still get a file with just the header row, so downstream
// aggregation sees a uniform shape.
func WriteDataset(dir string, res *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	rendered := Render(res)
	paths := make([]string, 0, len(Kinds))
	for _, kind := range Kinds {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", res.DatasetID, kind))
		if err := WriteCSV(path, headers[kind], rendered[kind]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteCSV writes a header and rows to path, replacing any existing file.
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write rows %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ReadCSV reads a CSV file back as header and rows.
func ReadCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}
