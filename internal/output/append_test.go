package output_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacheck/internal/output"
)

var aggHeader = []string{"dataset_id", "descriptor_key", "descriptor_value"}

func seedAggregate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final_descriptors.csv")
	require.NoError(t, output.WriteCSV(path, aggHeader, [][]string{
		{"ds000001", "Name", "First"},
	}))
	return path
}

func TestAppendAggregate_BackupThenAppend(t *testing.T) {
	path := seedAggregate(t)

	err := output.AppendAggregate(path, aggHeader, [][]string{
		{"ds000002", "Name", "Second"},
	})
	require.NoError(t, err)

	_, rows, err := output.ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "ds000002", rows[1][0])

	backup := output.BackupPath(path, time.Now())
	_, backupRows, err := output.ReadCSV(backup)
	require.NoError(t, err, "backup survives a successful append for later validation")
	assert.Len(t, backupRows, 1, "backup holds the pre-append content")
}

func TestAppendAggregate_MissingTargetIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_counts.csv")
	err := output.AppendAggregate(path, aggHeader, [][]string{{"ds000001", "k", "v"}})
	assert.Error(t, err)
}

func TestAppendAggregate_HeaderMismatchLeavesOriginalIntact(t *testing.T) {
	path := seedAggregate(t)

	err := output.AppendAggregate(path, []string{"wrong", "header"}, [][]string{{"a", "b"}})
	require.Error(t, err)

	_, rows, readErr := output.ReadCSV(path)
	require.NoError(t, readErr)
	assert.Len(t, rows, 1, "original aggregate unchanged")
	assert.NoFileExists(t, output.BackupPath(path, time.Now()))
}

func TestAppendAggregate_UnwritableDirPreservesOriginal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not bind for root")
	}
	path := seedAggregate(t)
	dir := filepath.Dir(path)

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := output.AppendAggregate(path, aggHeader, [][]string{{"ds000002", "k", "v"}})
	require.Error(t, err)

	require.NoError(t, os.Chmod(dir, 0o755))
	_, rows, readErr := output.ReadCSV(path)
	require.NoError(t, readErr)
	assert.Len(t, rows, 1, "original aggregate not truncated or partially overwritten")
}

func TestAppendAggregate_NoRowsIsNoop(t *testing.T) {
	path := seedAggregate(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, output.AppendAggregate(path, aggHeader, nil))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoFileExists(t, output.BackupPath(path, time.Now()))
}
