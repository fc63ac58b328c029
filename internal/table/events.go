package table

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/metacheck/internal/bids"
)

// EventRecord is one (dataset, subject, task, run, key, value) row of the
// long events record set.
type EventRecord struct {
	DatasetID  string
	Subject    string
	Task       string
	Run        int
	Key        string
	Value      string
	Documented bool
}

// EventResult bundles a task's long records with the task-level schema
// validation. Validation aggregates over every events file of the task,
// because the sidecar is declared once per task, not once per run.
type EventResult struct {
	Records    []EventRecord
	Validation SchemaValidation
	Findings   []bids.Finding
}

// NormalizeEvents reshapes every events file of one non-rest task into
// long form. A task with no events files yields empty records and a
// finding; read failures are hard errors.
func NormalizeEvents(layout *bids.Layout, task string) (*EventResult, error) {
	result := &EventResult{
		Validation: SchemaValidation{Documented: map[string]bool{}},
	}

	files := eventFiles(layout, task, ".tsv")
	if len(files) == 0 {
		result.Findings = append(result.Findings, bids.Finding{
			Code:    bids.FindingMissingFile,
			Message: fmt.Sprintf("no events.tsv found for task %s", task),
		})
		return result, nil
	}

	schemaKeys := map[string]bool{}
	if sidecar := eventSidecar(layout, task); sidecar != "" {
		keys, err := sidecarKeys(filepath.Join(layout.Root, filepath.FromSlash(sidecar)))
		if err != nil {
			result.Findings = append(result.Findings, bids.Finding{
				Code:    bids.FindingSchemaMismatch,
				Message: err.Error(),
			})
		} else {
			result.Validation.SchemaPresent = true
			schemaKeys = keys
		}
	}

	for _, rel := range files {
		ent := bids.ParseEntities(base(rel))

		run := 1
		if r := ent.Run(); r != "" {
			if n, err := strconv.Atoi(r); err == nil {
				run = n
			}
		}

		tbl, err := ReadTSV(filepath.Join(layout.Root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("events for %s task %s: %w", layout.DatasetID, task, err)
		}

		for _, h := range tbl.Header {
			result.Validation.Documented[h] = result.Validation.SchemaPresent && schemaKeys[h]
		}

		for _, row := range tbl.Rows {
			for i, h := range tbl.Header {
				result.Records = append(result.Records, EventRecord{
					DatasetID:  layout.DatasetID,
					Subject:    ent.Subject(),
					Task:       task,
					Run:        run,
					Key:        h,
					Value:      row[i],
					Documented: result.Validation.Documented[h],
				})
			}
		}
	}

	return result, nil
}

// eventFiles returns the sorted relative paths of the task's events files
// with the given extension.
func eventFiles(layout *bids.Layout, task, ext string) []string {
	var out []string
	for _, f := range layout.Files {
		ent := bids.ParseEntities(base(f))
		if ent.Task() == task && ent.Suffix == "events" && ent.Extension == ext {
			out = append(out, f)
		}
	}
	return out
}

// eventSidecar picks the governing events sidecar for a task: the
// canonical top-level task-<t>_events.json when present, else the first
// matching sidecar anywhere in the tree.
func eventSidecar(layout *bids.Layout, task string) string {
	canonical := fmt.Sprintf("task-%s_events.json", task)
	if layout.HasFile(canonical) {
		return canonical
	}
	for _, f := range eventFiles(layout, task, ".json") {
		return f
	}
	return ""
}

func base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
