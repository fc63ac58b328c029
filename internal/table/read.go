package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is a parsed tab-separated file. Header keys are canonicalized;
// rows are padded or truncated to the header width, since hand-edited TSVs
// in the corpus are frequently ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTSV parses a tab-separated file. An empty file yields an empty
// table, not an error.
func ReadTSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse table %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = CanonKey(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = CanonValue(rec[i])
			}
		}
		rows = append(rows, row)
	}

	return &Table{Header: header, Rows: rows}, nil
}

// CanonKey canonicalizes a column key: surrounding whitespace stripped,
// NFC normalized. Keys must compare equal across the TSV header and the
// JSON sidecar regardless of Unicode composition.
func CanonKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CanonValue NFC-normalizes a cell value, preserving it otherwise.
func CanonValue(s string) string {
	return norm.NFC.String(s)
}

// sidecarKeys reads a JSON sidecar and returns its canonicalized top-level
// keys. The error distinguishes unreadable from malformed for the caller's
// finding message.
func sidecarKeys(path string) (map[string]bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	keys := make(map[string]bool, len(obj))
	for k := range obj {
		keys[CanonKey(k)] = true
	}
	return keys, nil
}
