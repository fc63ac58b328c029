package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacheck/internal/bids"
	"github.com/roach88/metacheck/internal/table"
	"github.com/roach88/metacheck/internal/testutil"
)

func eventFixture(t *testing.T) *testutil.Dataset {
	t.Helper()
	d := testutil.NewDataset(t, "ds000001")
	d.WriteDescription(nil)
	d.WriteTSV("sub-01/func/sub-01_task-nback_run-1_events.tsv",
		[]string{"onset", "duration", "response"},
		[]string{"0.5", "1.0", "left"},
		[]string{"2.5", "1.0", "right"},
	)
	d.WriteTSV("sub-01/func/sub-01_task-nback_run-2_events.tsv",
		[]string{"onset", "duration", "response"},
		[]string{"0.7", "1.0", "left"},
	)
	d.WriteTSV("sub-02/func/sub-02_task-nback_events.tsv",
		[]string{"onset", "duration"},
		[]string{"1.1", "2.0"},
	)
	return d
}

func TestNormalizeEvents_PerRunRecords(t *testing.T) {
	d := eventFixture(t)
	res, err := table.NormalizeEvents(resolve(t, d), "nback")
	require.NoError(t, err)

	// sub-01 run 1: 2 rows x 3 cols, run 2: 1 row x 3 cols,
	// sub-02 implicit run: 1 row x 2 cols.
	assert.Len(t, res.Records, 11)

	runs := map[string]map[int]bool{}
	for _, r := range res.Records {
		assert.Equal(t, "nback", r.Task)
		if runs[r.Subject] == nil {
			runs[r.Subject] = map[int]bool{}
		}
		runs[r.Subject][r.Run] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, runs["01"])
	assert.Equal(t, map[int]bool{1: true}, runs["02"], "unlabeled run defaults to 1")
}

func TestNormalizeEvents_TaskLevelValidation(t *testing.T) {
	d := eventFixture(t)
	d.WriteJSON("task-nback_events.json", map[string]any{
		"onset":    map[string]any{"Description": "event onset"},
		"duration": map[string]any{"Description": "event duration"},
	})

	res, err := table.NormalizeEvents(resolve(t, d), "nback")
	require.NoError(t, err)

	assert.True(t, res.Validation.SchemaPresent)
	// Aggregated once per task across all three files.
	assert.Equal(t, map[string]bool{"onset": true, "duration": true, "response": false}, res.Validation.Documented)

	for _, r := range res.Records {
		assert.Equal(t, r.Key != "response", r.Documented)
	}
}

func TestNormalizeEvents_NestedSidecarFallback(t *testing.T) {
	d := eventFixture(t)
	d.WriteJSON("sub-01/func/sub-01_task-nback_events.json", map[string]any{
		"onset": map[string]any{},
	})

	res, err := table.NormalizeEvents(resolve(t, d), "nback")
	require.NoError(t, err)

	assert.True(t, res.Validation.SchemaPresent)
	assert.True(t, res.Validation.Documented["onset"])
	assert.False(t, res.Validation.Documented["duration"])
}

func TestNormalizeEvents_NoFilesIsSoft(t *testing.T) {
	d := testutil.NewDataset(t, "ds000003")
	d.WriteDescription(nil)
	d.WriteFile("sub-01/func/sub-01_task-nback_bold.nii.gz", "")

	res, err := table.NormalizeEvents(resolve(t, d), "nback")
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, bids.FindingMissingFile, res.Findings[0].Code)
}

func TestNormalizeEvents_Idempotent(t *testing.T) {
	d := eventFixture(t)
	layout := resolve(t, d)

	first, err := table.NormalizeEvents(layout, "nback")
	require.NoError(t, err)
	second, err := table.NormalizeEvents(layout, "nback")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
