package bids

import (
	"strings"
)

// Entities holds the key-value pairs parsed from a BIDS filename, plus the
// trailing suffix and extension. For "sub-01_task-nback_run-2_events.tsv"
// the entities are {sub: 01, task: nback, run: 2}, suffix "events",
// extension ".tsv".
type Entities struct {
	Pairs     map[string]string
	Suffix    string
	Extension string
}

// ParseEntities decomposes a BIDS filename into entities, suffix, and
// extension. Unparseable segments are ignored rather than rejected: the
// corpus contains plenty of loosely named files and the caller only cares
// about the entities it can recognize.
func ParseEntities(name string) Entities {
	ent := Entities{Pairs: map[string]string{}}

	stem := name
	if i := strings.Index(stem, "."); i >= 0 {
		ent.Extension = stem[i:]
		stem = stem[:i]
	}

	parts := strings.Split(stem, "_")
	for i, part := range parts {
		key, value, ok := strings.Cut(part, "-")
		if ok && key != "" && value != "" {
			ent.Pairs[key] = value
			continue
		}
		// A segment without a dash in the final position is the suffix
		// (e.g. "events", "bold", "T1w").
		if i == len(parts)-1 {
			ent.Suffix = part
		}
	}

	return ent
}

// Task returns the task entity, or "" when absent.
func (e Entities) Task() string { return e.Pairs["task"] }

// Subject returns the subject entity, or "" when absent.
func (e Entities) Subject() string { return e.Pairs["sub"] }

// Session returns the session entity, or "" when absent.
func (e Entities) Session() string { return e.Pairs["ses"] }

// Run returns the run entity, or "" when absent.
func (e Entities) Run() string { return e.Pairs["run"] }

// DefaultRestPrefixes classifies resting-state paradigms. Task names are
// matched case-insensitively by prefix, following the naming convention
// rest, rest1, restingstate, RestEyesOpen, etc.
var DefaultRestPrefixes = []string{"rest"}

// IsRest reports whether a task name is classified as resting-state.
// Rest tasks have no event structure and are exempt from events-file
// requirements. An empty prefix list falls back to the default.
func IsRest(task string, prefixes []string) bool {
	if len(prefixes) == 0 {
		prefixes = DefaultRestPrefixes
	}
	lower := strings.ToLower(task)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// NonRest filters a task list down to non-rest tasks, preserving order.
func NonRest(tasks []string, prefixes []string) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if !IsRest(t, prefixes) {
			out = append(out, t)
		}
	}
	return out
}
