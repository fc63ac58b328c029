package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roach88/metacheck/internal/bids"
)

const (
	participantsTSV  = "participants.tsv"
	participantsJSON = "participants.json"
	idColumn         = "participant_id"
)

// SchemaValidation maps each column of a table to whether the JSON sidecar
// documents it. SchemaPresent disambiguates "no sidecar at all" (every
// column false by convention) from "sidecar exists but incomplete".
type SchemaValidation struct {
	SchemaPresent bool
	Documented    map[string]bool
}

// ParticipantRecord is one (dataset, subject, key, value) row of the long
// participants record set.
type ParticipantRecord struct {
	DatasetID  string
	Subject    string
	Key        string
	Value      string
	Documented bool
}

// ParticipantResult bundles the long records with the schema validation
// and any findings made along the way.
type ParticipantResult struct {
	Records    []ParticipantRecord
	Validation SchemaValidation
	Findings   []bids.Finding
}

// NormalizeParticipants reshapes the wide participant table into long
// form.
//
// An absent participants.tsv is a soft outcome: the presence checker has
// already recorded it, so this returns empty records plus a finding rather
// than duplicating the miss as an error. Only filesystem read failures are
// hard errors. Every column of the wide table appears in the output,
// including ones the sidecar does not document (flagged, not dropped).
func NormalizeParticipants(layout *bids.Layout) (*ParticipantResult, error) {
	result := &ParticipantResult{
		Validation: SchemaValidation{Documented: map[string]bool{}},
	}

	if !layout.HasFile(participantsTSV) {
		result.Findings = append(result.Findings, bids.Finding{
			Code:    bids.FindingMissingFile,
			Message: participantsTSV + " not found",
		})
		return result, nil
	}

	tbl, err := ReadTSV(filepath.Join(layout.Root, participantsTSV))
	if err != nil {
		return nil, fmt.Errorf("participants for %s: %w", layout.DatasetID, err)
	}

	schemaKeys := map[string]bool{}
	if layout.HasFile(participantsJSON) {
		keys, err := sidecarKeys(filepath.Join(layout.Root, participantsJSON))
		if err != nil {
			// A sidecar that exists but does not parse documents
			// nothing; record the mismatch and carry on.
			result.Findings = append(result.Findings, bids.Finding{
				Code:    bids.FindingSchemaMismatch,
				Message: err.Error(),
			})
		} else {
			result.Validation.SchemaPresent = true
			schemaKeys = keys
		}
	}

	idIdx := -1
	for i, h := range tbl.Header {
		if h == idColumn {
			idIdx = i
		}
	}
	if idIdx < 0 && len(tbl.Header) > 0 {
		result.Findings = append(result.Findings, bids.Finding{
			Code:    bids.FindingSchemaMismatch,
			Message: participantsTSV + " has no " + idColumn + " column",
		})
	}

	for i, h := range tbl.Header {
		if i == idIdx {
			continue
		}
		result.Validation.Documented[h] = result.Validation.SchemaPresent && schemaKeys[h]
	}

	for rowIdx, row := range tbl.Rows {
		subject := fmt.Sprintf("row-%03d", rowIdx+1)
		if idIdx >= 0 {
			subject = strings.TrimPrefix(row[idIdx], "sub-")
		}
		for i, h := range tbl.Header {
			if i == idIdx {
				continue
			}
			result.Records = append(result.Records, ParticipantRecord{
				DatasetID:  layout.DatasetID,
				Subject:    subject,
				Key:        h,
				Value:      row[i],
				Documented: result.Validation.Documented[h],
			})
		}
	}

	return result, nil
}
