package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// AppendAggregate grows an existing aggregate CSV with new rows using a
// backup-then-append discipline: the current file is copied aside, the
// combined content is written to a temp file, and only a successful write
// replaces the original via rename. A failed append leaves both the
// original and the backup intact; the prior aggregate is never lost to a
// partial write.
//
// Appending to a nonexistent file is an error: aggregates are bootstrapped
// explicitly (WriteCSV), and a missing target usually means a wrong path.
func AppendAggregate(path string, header []string, rows [][]string) error {
	existingHeader, existing, err := ReadCSV(path)
	if err != nil {
		return fmt.Errorf("aggregate target: %w", err)
	}
	if !slices.Equal(existingHeader, header) {
		return fmt.Errorf("aggregate %s: header mismatch: have %v, want %v", path, existingHeader, header)
	}
	if len(rows) == 0 {
		return nil
	}

	backup := BackupPath(path, time.Now())
	if err := copyFile(path, backup); err != nil {
		return fmt.Errorf("aggregate backup: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".aggregate-*")
	if err != nil {
		return fmt.Errorf("aggregate temp: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(header)
	if writeErr == nil {
		writeErr = w.WriteAll(existing)
	}
	if writeErr == nil {
		writeErr = w.WriteAll(rows)
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("aggregate write: %w", writeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("aggregate replace: %w", err)
	}
	return nil
}

// BackupPath derives the dated backup name for an aggregate file:
// final_counts.csv -> final_counts_backup-20260828.csv.
func BackupPath(path string, t time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_backup-%s%s", stem, t.Format("20060102"), ext)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
