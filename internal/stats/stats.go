// Package stats compiles per-dataset aggregate counts and modality flags
// from a resolved layout. Compilation is pure: it reads the layout's
// in-memory index and touches no files.
package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/metacheck/internal/bids"
)

// Record is the one-row counts summary for a dataset. Counts are
// non-negative; a dataset with zero subjects is a valid degenerate result.
type Record struct {
	DatasetID string
	Kind      bids.Kind

	NumSubjects int
	NumTasks    int
	NumRuns     int

	// SessionMin and SessionMax bound the per-subject session counts.
	// A subject with no session subdirectory counts as one implicit
	// session, and a dataset with zero subjects reports 1/1 by the same
	// convention.
	SessionMin int
	SessionMax int

	Tasks        []string
	NonRestTasks []string

	// RunsPerTask maps each task to its distinct run count (at least 1
	// when the task appears without run entities).
	RunsPerTask map[string]int

	HasNIfTI bool
	HasBOLD  bool
	HasT1w   bool
	HasT2w   bool
	HasDWI   bool
}

// Compile aggregates a layout into its counts record. It assumes a valid
// layout and has no failure path of its own.
func Compile(layout *bids.Layout) Record {
	rec := Record{
		DatasetID:    layout.DatasetID,
		Kind:         layout.Kind,
		NumSubjects:  len(layout.Subjects),
		NumTasks:     len(layout.Tasks),
		NumRuns:      len(layout.Runs),
		Tasks:        append([]string(nil), layout.Tasks...),
		NonRestTasks: layout.NonRestTasks(nil),
		RunsPerTask:  runsPerTask(layout),
	}

	rec.SessionMin, rec.SessionMax = sessionRange(layout)

	for _, f := range layout.Files {
		name := f[strings.LastIndex(f, "/")+1:]
		ent := bids.ParseEntities(name)
		switch ent.Suffix {
		case "bold":
			rec.HasBOLD = true
		case "T1w":
			rec.HasT1w = true
		case "T2w":
			rec.HasT2w = true
		case "dwi":
			rec.HasDWI = true
		}
		if ent.Extension == ".nii" || ent.Extension == ".nii.gz" {
			rec.HasNIfTI = true
		}
	}

	return rec
}

func sessionRange(layout *bids.Layout) (min, max int) {
	min, max = 1, 1
	for i, sub := range layout.Subjects {
		n := len(layout.Sessions[sub])
		if n == 0 {
			n = 1 // implicit single session
		}
		if i == 0 {
			min, max = n, n
			continue
		}
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return min, max
}

func runsPerTask(layout *bids.Layout) map[string]int {
	runs := map[string]map[string]bool{}
	for _, f := range layout.Files {
		name := f[strings.LastIndex(f, "/")+1:]
		ent := bids.ParseEntities(name)
		task := ent.Task()
		if task == "" {
			continue
		}
		if runs[task] == nil {
			runs[task] = map[string]bool{}
		}
		if r := ent.Run(); r != "" {
			runs[task][r] = true
		}
	}

	out := make(map[string]int, len(layout.Tasks))
	for _, task := range layout.Tasks {
		n := len(runs[task])
		if n == 0 {
			n = 1 // task present without run entities: single implicit run
		}
		out[task] = n
	}
	return out
}

// FormatRunsPerTask renders the per-task run counts as a stable
// "task:count;task:count" string for tabular output.
func FormatRunsPerTask(runs map[string]int) string {
	tasks := make([]string, 0, len(runs))
	for t := range runs {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)

	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(t)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(runs[t]))
	}
	return b.String()
}
