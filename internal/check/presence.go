package check

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/metacheck/internal/bids"
)

// Location is where an expected file was found, or "missing".
type Location string

const (
	LocationTop     Location = "top"
	LocationFunc    Location = "func"
	LocationNested  Location = "nested"
	LocationMissing Location = "missing"
)

// PresenceRecord resolves one Entry to exactly one location. Matches
// counts the files found at that location; zero iff missing.
type PresenceRecord struct {
	DatasetID string
	Entry     Entry
	Location  Location
	Matches   int
}

// funcDirPatterns shape the functional-level search: a func/ directory
// directly under a subject, with or without a session level.
var funcDirPatterns = []string{
	"sub-*/func/*",
	"sub-*/ses-*/func/*",
}

// Check resolves every expected entry against the layout's file index.
//
// The search order is a deterministic precedence list: top-level exact
// match, then the per-subject functional directories (task-scoped entries
// only), then anywhere nested. The first matching location wins; an entry
// matched nowhere is recorded missing. Required-but-missing entries are
// findings for the caller to report, never errors.
func Check(layout *bids.Layout, entries []Entry) []PresenceRecord {
	records := make([]PresenceRecord, 0, len(entries))
	for _, e := range entries {
		loc, n := locate(layout, e)
		records = append(records, PresenceRecord{
			DatasetID: layout.DatasetID,
			Entry:     e,
			Location:  loc,
			Matches:   n,
		})
	}
	return records
}

func locate(layout *bids.Layout, e Entry) (Location, int) {
	if layout.HasFile(e.Name) {
		return LocationTop, 1
	}

	if e.Scope == ScopeTask {
		if n := countMatches(layout.Files, e, funcDirPatterns); n > 0 {
			return LocationFunc, n
		}
	}

	if n := countMatches(layout.Files, e, []string{"**/*"}); n > 0 {
		return LocationNested, n
	}
	return LocationMissing, 0
}

// countMatches counts files whose directory shape matches one of the glob
// patterns and whose name matches the entry. Dataset-level entries match
// by exact filename; task-level entries match by (task entity, suffix,
// extension), since subject-level copies carry sub-/ses-/run- entities the
// canonical name does not.
func countMatches(files []string, e Entry, patterns []string) int {
	want := bids.ParseEntities(e.Name)
	n := 0
	for _, f := range files {
		if !matchesAny(patterns, f) {
			continue
		}
		if e.Scope == ScopeDataset {
			if base(f) == e.Name {
				n++
			}
			continue
		}
		got := bids.ParseEntities(base(f))
		if got.Task() == e.Task && got.Suffix == want.Suffix && got.Extension == want.Extension {
			n++
		}
	}
	return n
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

func base(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
