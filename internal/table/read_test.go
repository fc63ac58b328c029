package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTSV_RaggedRowsArePadded(t *testing.T) {
	path := writeTemp(t, "a\tb\tc\n1\t2\n1\t2\t3\t4\n")

	tbl, err := ReadTSV(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
	assert.Equal(t, []string{"1", "2", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, tbl.Rows[1])
}

func TestReadTSV_EmptyFile(t *testing.T) {
	tbl, err := ReadTSV(writeTemp(t, ""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestReadTSV_MissingFile(t *testing.T) {
	_, err := ReadTSV(filepath.Join(t.TempDir(), "absent.tsv"))
	assert.Error(t, err)
}

func TestCanonKey_NFCAndTrim(t *testing.T) {
	// "é" decomposed (e + combining acute) vs precomposed.
	decomposed := "agé"
	precomposed := "agé"
	assert.Equal(t, CanonKey(precomposed), CanonKey(decomposed))
	assert.Equal(t, "age", CanonKey("  age\t"))
}

func TestSidecarKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"age": {}, "sex": {"Description": "x"}}`), 0o644))

	keys, err := sidecarKeys(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"age": true, "sex": true}, keys)

	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))
	_, err = sidecarKeys(path)
	assert.Error(t, err, "non-object sidecar is malformed")
}
