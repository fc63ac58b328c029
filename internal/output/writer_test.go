package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacheck/internal/bids"
	"github.com/roach88/metacheck/internal/check"
	"github.com/roach88/metacheck/internal/output"
	"github.com/roach88/metacheck/internal/pipeline"
	"github.com/roach88/metacheck/internal/stats"
	"github.com/roach88/metacheck/internal/table"
)

// goldenResult is a fixed pipeline result whose rendered CSVs are pinned
// by golden files.
func goldenResult() *pipeline.Result {
	return &pipeline.Result{
		DatasetID: "ds000001",
		Basics: []check.PresenceRecord{
			{
				DatasetID: "ds000001",
				Entry:     check.Entry{Name: "dataset_description.json", Level: check.LevelRequired, Scope: check.ScopeDataset},
				Location:  check.LocationTop,
				Matches:   1,
			},
			{
				DatasetID: "ds000001",
				Entry:     check.Entry{Name: "task-nback_events.tsv", Level: check.LevelRequired, Scope: check.ScopeTask, Task: "nback"},
				Location:  check.LocationFunc,
				Matches:   2,
			},
		},
		Counts: stats.Record{
			DatasetID:   "ds000001",
			Kind:        bids.KindStandard,
			NumSubjects: 2,
			NumTasks:    2,
			NumRuns:     1,
			SessionMin:  1,
			SessionMax:  1,
			RunsPerTask: map[string]int{"nback": 2, "rest": 1},
			HasNIfTI:    true,
			HasBOLD:     true,
		},
		Descriptors: []bids.DescriptorRecord{
			{DatasetID: "ds000001", Key: "BIDSVersion", Value: "1.8.0"},
			{DatasetID: "ds000001", Key: "Name", Value: "Golden Study"},
		},
		Participants: []table.ParticipantRecord{
			{DatasetID: "ds000001", Subject: "01", Key: "age", Value: "24", Documented: true},
			{DatasetID: "ds000001", Subject: "02", Key: "age", Value: "31", Documented: true},
		},
		ParticipantValidation: table.SchemaValidation{
			SchemaPresent: true,
			Documented:    map[string]bool{"age": true},
		},
		Events: []table.EventRecord{
			{DatasetID: "ds000001", Subject: "01", Task: "nback", Run: 1, Key: "onset", Value: "0.5", Documented: true},
		},
		EventValidation: map[string]table.SchemaValidation{
			"nback": {SchemaPresent: true, Documented: map[string]bool{"onset": true}},
		},
	}
}

func TestWriteDataset_Golden(t *testing.T) {
	dir := t.TempDir()
	paths, err := output.WriteDataset(dir, goldenResult())
	require.NoError(t, err)
	require.Len(t, paths, len(output.Kinds))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for i, kind := range output.Kinds {
		data, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		g.Assert(t, "ds000001_"+kind, data)
	}
}

func TestWriteDataset_EmptySetsKeepHeader(t *testing.T) {
	res := &pipeline.Result{DatasetID: "ds000099", Counts: stats.Record{DatasetID: "ds000099", Kind: bids.KindStandard, SessionMin: 1, SessionMax: 1}}
	dir := t.TempDir()

	_, err := output.WriteDataset(dir, res)
	require.NoError(t, err)

	header, rows, err := output.ReadCSV(filepath.Join(dir, "ds000099_participants.csv"))
	require.NoError(t, err)
	assert.Equal(t, output.Header(output.KindParticipants), header)
	assert.Empty(t, rows)
}

func TestReadCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"a", "b"}
	rows := [][]string{{"1", "x"}, {"2", "value, with comma"}}

	require.NoError(t, output.WriteCSV(path, header, rows))
	gotHeader, gotRows, err := output.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.Equal(t, rows, gotRows)
}
