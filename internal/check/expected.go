// Package check determines presence and location of the files a dataset is
// expected to carry. Expected-entry generation is a pure function of the
// detected task list; the location search is an ordered sequence of
// matchers with first-match-wins semantics.
package check

import (
	"fmt"

	"github.com/roach88/metacheck/internal/bids"
)

// Level grades how strongly a file is expected.
type Level string

const (
	LevelRequired    Level = "required"
	LevelRecommended Level = "recommended"
	LevelOptional    Level = "optional"
)

// Scope distinguishes dataset-level entries from per-task ones.
type Scope string

const (
	ScopeDataset Scope = "dataset"
	ScopeTask    Scope = "task"
)

// Entry is one expected file: its canonical top-level name, expectation
// level, and scope. Task-scoped entries carry the task they were generated
// for, which drives the functional-level search.
type Entry struct {
	Name  string
	Level Level
	Scope Scope
	Task  string
}

// datasetEntries are the static top-level expectations every dataset gets.
var datasetEntries = []Entry{
	{Name: "dataset_description.json", Level: LevelRequired, Scope: ScopeDataset},
	{Name: "participants.tsv", Level: LevelRecommended, Scope: ScopeDataset},
	{Name: "participants.json", Level: LevelRecommended, Scope: ScopeDataset},
	{Name: "README", Level: LevelRecommended, Scope: ScopeDataset},
	{Name: "CHANGES", Level: LevelOptional, Scope: ScopeDataset},
}

// ExpectedEntries builds the expected-file list for a dataset with the
// given detected tasks. Task-level entries are generated for non-rest tasks
// only: resting-state paradigms have no event structure, so no events files
// are expected of them.
func ExpectedEntries(tasks []string, restPrefixes []string) []Entry {
	entries := make([]Entry, len(datasetEntries))
	copy(entries, datasetEntries)

	for _, task := range bids.NonRest(tasks, restPrefixes) {
		entries = append(entries,
			Entry{Name: fmt.Sprintf("task-%s_events.tsv", task), Level: LevelRequired, Scope: ScopeTask, Task: task},
			Entry{Name: fmt.Sprintf("task-%s_events.json", task), Level: LevelRecommended, Scope: ScopeTask, Task: task},
			Entry{Name: fmt.Sprintf("task-%s_bold.json", task), Level: LevelRecommended, Scope: ScopeTask, Task: task},
		)
	}
	return entries
}
