package bids

import "fmt"

// StructureError indicates that neither a standard nor a derivative BIDS
// layout signature was found at the dataset root. It is the only fatal
// condition the resolver raises on its own; everything softer is recorded
// as a Finding.
type StructureError struct {
	// Dataset is the dataset identifier being resolved.
	Dataset string

	// Root is the absolute path that was inspected.
	Root string
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	return fmt.Sprintf("no dataset_description.json found for %s under %s", e.Dataset, e.Root)
}

// FindingCode categorizes non-fatal conditions recorded during processing.
type FindingCode string

const (
	// FindingMissingFile indicates an expected file was absent. Missing
	// files are steady-state data in a corpus of partially curated
	// datasets, never an error.
	FindingMissingFile FindingCode = "MISSING_FILE"

	// FindingSchemaMismatch indicates a sidecar schema disagreed with the
	// tabular data it describes (undocumented columns, malformed sidecar).
	FindingSchemaMismatch FindingCode = "SCHEMA_MISMATCH"

	// FindingDescriptorInvalid indicates dataset_description.json parsed
	// as JSON but failed schema validation.
	FindingDescriptorInvalid FindingCode = "DESCRIPTOR_INVALID"
)

// Finding records a non-fatal condition observed while processing a
// dataset. Findings are facts to report, not errors to raise.
type Finding struct {
	Code    FindingCode
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}
