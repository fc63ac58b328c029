// Package testutil provides shared fixtures for package tests, chiefly a
// builder for synthetic BIDS dataset trees.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Dataset writes a synthetic BIDS dataset tree under a per-test temp
// directory. DataDir is the parent directory (what the pipeline calls the
// data dir); the dataset itself lives at DataDir/ID.
type Dataset struct {
	t       *testing.T
	DataDir string
	ID      string
}

// NewDataset creates an empty dataset directory under a fresh temp dir.
func NewDataset(t *testing.T, id string) *Dataset {
	t.Helper()
	d := &Dataset{t: t, DataDir: t.TempDir(), ID: id}
	if err := os.MkdirAll(d.Dir(), 0o755); err != nil {
		t.Fatalf("create dataset dir: %v", err)
	}
	return d
}

// Dir returns the dataset root path.
func (d *Dataset) Dir() string {
	return filepath.Join(d.DataDir, d.ID)
}

// WriteFile writes content at a slash-separated path relative to the
// dataset root, creating parent directories as needed.
func (d *Dataset) WriteFile(rel, content string) {
	d.t.Helper()
	path := filepath.Join(d.Dir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		d.t.Fatalf("write %s: %v", rel, err)
	}
}

// WriteJSON marshals v and writes it at rel.
func (d *Dataset) WriteJSON(rel string, v any) {
	d.t.Helper()
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		d.t.Fatalf("marshal %s: %v", rel, err)
	}
	d.WriteFile(rel, string(raw))
}

// WriteDescription writes dataset_description.json with Name and
// BIDSVersion defaults merged under any explicit fields.
func (d *Dataset) WriteDescription(fields map[string]any) {
	d.t.Helper()
	desc := map[string]any{
		"Name":        "Test Dataset " + d.ID,
		"BIDSVersion": "1.8.0",
	}
	for k, v := range fields {
		desc[k] = v
	}
	d.WriteJSON("dataset_description.json", desc)
}

// WriteTSV writes a tab-separated table at rel.
func (d *Dataset) WriteTSV(rel string, header []string, rows ...[]string) {
	d.t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(header, "\t"))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	d.WriteFile(rel, b.String())
}
