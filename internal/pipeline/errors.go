package pipeline

import "fmt"

// DatasetError is the single fatal error shape per dataset: the stage that
// failed plus the originating cause. A batch caller records the
// (dataset, stage, message) tuple and moves on; nothing here aborts a
// batch.
type DatasetError struct {
	Dataset string
	Stage   Stage
	Cause   error
}

// Error implements the error interface.
func (e *DatasetError) Error() string {
	return fmt.Sprintf("dataset %s failed at %s: %v", e.Dataset, e.Stage, e.Cause)
}

// Unwrap exposes the originating failure.
func (e *DatasetError) Unwrap() error {
	return e.Cause
}

// Message renders the cause for persistence in a run log.
func (e *DatasetError) Message() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}
