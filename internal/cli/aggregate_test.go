package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacheck/internal/output"
)

func TestAggregateCommandInit(t *testing.T) {
	dataDir := t.TempDir()
	writeBatchDataset(t, dataDir, "ds000001")
	writeBatchDataset(t, dataDir, "ds000002")
	perDataset := filepath.Join(t.TempDir(), "per-dataset")
	aggDir := filepath.Join(t.TempDir(), "agg")

	_, err := runCommand(t, "batch", "--data-dir", dataDir, "--out", perDataset)
	require.NoError(t, err)

	out, err := runCommand(t, "aggregate", "--from", perDataset, "--out", aggDir, "--init")
	require.NoError(t, err)
	assert.Contains(t, out, "aggregated 2 dataset(s)")

	for _, kind := range output.Kinds {
		assert.FileExists(t, filepath.Join(aggDir, "final_"+kind+".csv"))
	}

	// Both datasets landed in the counts aggregate.
	_, rows, err := output.ReadCSV(filepath.Join(aggDir, "final_counts.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ds000001", rows[0][0])
	assert.Equal(t, "ds000002", rows[1][0])
}

func TestAggregateCommandAppend(t *testing.T) {
	dataDir := t.TempDir()
	writeBatchDataset(t, dataDir, "ds000001")
	perDataset := filepath.Join(t.TempDir(), "per-dataset")
	aggDir := filepath.Join(t.TempDir(), "agg")

	_, err := runCommand(t, "batch", "--data-dir", dataDir, "--out", perDataset)
	require.NoError(t, err)
	_, err = runCommand(t, "aggregate", "--from", perDataset, "--out", aggDir, "--init")
	require.NoError(t, err)

	// Second batch output for a new dataset, appended onto the aggregate.
	dataDir2 := t.TempDir()
	writeBatchDataset(t, dataDir2, "ds000002")
	perDataset2 := filepath.Join(t.TempDir(), "per-dataset-2")
	_, err = runCommand(t, "batch", "--data-dir", dataDir2, "--out", perDataset2)
	require.NoError(t, err)

	_, err = runCommand(t, "aggregate", "--from", perDataset2, "--out", aggDir)
	require.NoError(t, err)

	_, rows, err := output.ReadCSV(filepath.Join(aggDir, "final_counts.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// The append backed up the previous aggregate first.
	backups, err := filepath.Glob(filepath.Join(aggDir, "final_counts_backup-*.csv"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestAggregateCommandMissingTarget(t *testing.T) {
	dataDir := t.TempDir()
	writeBatchDataset(t, dataDir, "ds000001")
	perDataset := filepath.Join(t.TempDir(), "per-dataset")

	_, err := runCommand(t, "batch", "--data-dir", dataDir, "--out", perDataset)
	require.NoError(t, err)

	// Appending without --init requires existing aggregate files.
	_, err = runCommand(t, "aggregate", "--from", perDataset, "--out", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAggregateCommandHeaderMismatch(t *testing.T) {
	perDataset := t.TempDir()
	bad := filepath.Join(perDataset, "ds000001_counts.csv")
	require.NoError(t, os.WriteFile(bad, []byte("wrong,header\n1,2\n"), 0o644))

	aggDir := t.TempDir()
	_, err := runCommand(t, "aggregate", "--from", perDataset, "--out", aggDir, "--init")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
