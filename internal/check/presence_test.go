package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacheck/internal/bids"
	"github.com/roach88/metacheck/internal/check"
	"github.com/roach88/metacheck/internal/testutil"
)

func resolve(t *testing.T, d *testutil.Dataset) *bids.Layout {
	t.Helper()
	layout, err := bids.Resolve(d.DataDir, d.ID)
	require.NoError(t, err)
	return layout
}

func locations(records []check.PresenceRecord) map[string]check.Location {
	out := map[string]check.Location{}
	for _, r := range records {
		out[r.Entry.Name] = r.Location
	}
	return out
}

func TestCheck_Locations(t *testing.T) {
	d := testutil.NewDataset(t, "ds000001")
	d.WriteDescription(nil)
	d.WriteFile("README", "readme")
	d.WriteFile("task-nback_events.json", "{}")
	d.WriteFile("sub-01/func/sub-01_task-nback_run-1_events.tsv", "onset\n0.1\n")
	d.WriteFile("sub-01/func/sub-01_task-nback_run-2_events.tsv", "onset\n0.2\n")
	d.WriteFile("sub-02/beh/sub-02_task-stroop_events.tsv", "onset\n0.3\n")

	layout := resolve(t, d)
	records := check.Check(layout, check.ExpectedEntries(layout.Tasks, nil))
	locs := locations(records)

	assert.Equal(t, check.LocationTop, locs["dataset_description.json"])
	assert.Equal(t, check.LocationTop, locs["README"])
	assert.Equal(t, check.LocationTop, locs["task-nback_events.json"])
	assert.Equal(t, check.LocationFunc, locs["task-nback_events.tsv"])
	assert.Equal(t, check.LocationNested, locs["task-stroop_events.tsv"], "beh/ directory is below the functional level")
	assert.Equal(t, check.LocationMissing, locs["participants.tsv"])
	assert.Equal(t, check.LocationMissing, locs["CHANGES"])
}

func TestCheck_ExactlyOneLocationPerEntry(t *testing.T) {
	d := testutil.NewDataset(t, "ds000001")
	d.WriteDescription(nil)
	d.WriteFile("sub-01/func/sub-01_task-nback_events.tsv", "onset\n1\n")

	layout := resolve(t, d)
	entries := check.ExpectedEntries(layout.Tasks, nil)
	records := check.Check(layout, entries)

	require.Len(t, records, len(entries))
	valid := map[check.Location]bool{
		check.LocationTop: true, check.LocationFunc: true,
		check.LocationNested: true, check.LocationMissing: true,
	}
	for _, r := range records {
		assert.True(t, valid[r.Location], "entry %s has location %q", r.Entry.Name, r.Location)
		if r.Location == check.LocationMissing {
			assert.Zero(t, r.Matches)
		} else {
			assert.Positive(t, r.Matches)
		}
	}
}

func TestCheck_FuncMatchCount(t *testing.T) {
	d := testutil.NewDataset(t, "ds000001")
	d.WriteDescription(nil)
	d.WriteFile("sub-01/ses-pre/func/sub-01_ses-pre_task-nback_run-1_events.tsv", "onset\n1\n")
	d.WriteFile("sub-01/ses-post/func/sub-01_ses-post_task-nback_run-1_events.tsv", "onset\n1\n")
	d.WriteFile("sub-02/func/sub-02_task-nback_events.tsv", "onset\n1\n")

	layout := resolve(t, d)
	records := check.Check(layout, check.ExpectedEntries(layout.Tasks, nil))

	for _, r := range records {
		if r.Entry.Name == "task-nback_events.tsv" {
			assert.Equal(t, check.LocationFunc, r.Location)
			assert.Equal(t, 3, r.Matches)
		}
	}
}

func TestCheck_TopLevelWinsOverFunc(t *testing.T) {
	d := testutil.NewDataset(t, "ds000001")
	d.WriteDescription(nil)
	d.WriteFile("task-nback_events.tsv", "onset\n1\n")
	d.WriteFile("sub-01/func/sub-01_task-nback_events.tsv", "onset\n1\n")

	layout := resolve(t, d)
	records := check.Check(layout, check.ExpectedEntries(layout.Tasks, nil))
	locs := locations(records)

	assert.Equal(t, check.LocationTop, locs["task-nback_events.tsv"])
}

func TestCheck_TaskEntityIsExact(t *testing.T) {
	d := testutil.NewDataset(t, "ds000001")
	d.WriteDescription(nil)
	d.WriteFile("sub-01/func/sub-01_task-nbackhard_events.tsv", "onset\n1\n")
	d.WriteFile("sub-01/func/sub-01_task-nbackhard_bold.nii.gz", "")
	d.WriteFile("sub-01/func/sub-01_task-nback_bold.nii.gz", "")

	layout := resolve(t, d)
	records := check.Check(layout, check.ExpectedEntries(layout.Tasks, nil))

	for _, r := range records {
		if r.Entry.Name == "task-nback_events.tsv" {
			assert.Equal(t, check.LocationMissing, r.Location, "nbackhard events must not satisfy nback")
		}
		if r.Entry.Name == "task-nbackhard_events.tsv" {
			assert.Equal(t, check.LocationFunc, r.Location)
		}
	}
}
