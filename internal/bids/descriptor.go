package bids

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// descriptorSchema validates dataset_description.json. Name and BIDSVersion
// are required by the BIDS specification; everything else is typed but
// optional, and unknown keys are allowed (the corpus is full of them).
const descriptorSchema = `
#Descriptor: {
	Name:        string
	BIDSVersion: string

	DatasetType?:        "raw" | "derivative"
	License?:            string
	Authors?:            [...string]
	Acknowledgements?:   string
	HowToAcknowledge?:   string
	Funding?:            [...string]
	EthicsApprovals?:    [...string]
	ReferencesAndLinks?: [...string]
	DatasetDOI?:         string
	...
}
`

// DescriptorRecord is one (dataset, key, value) row of the descriptors
// record set. Non-string descriptor values are rendered as compact JSON.
type DescriptorRecord struct {
	DatasetID string
	Key       string
	Value     string
}

// DescriptorRecords flattens the dataset descriptor into sorted key-value
// rows.
func (l *Layout) DescriptorRecords() []DescriptorRecord {
	keys := make([]string, 0, len(l.Descriptor))
	for k := range l.Descriptor {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]DescriptorRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, DescriptorRecord{
			DatasetID: l.DatasetID,
			Key:       k,
			Value:     renderDescriptorValue(l.Descriptor[k]),
		})
	}
	return records
}

// ValidateDescriptor checks a decoded descriptor against the embedded CUE
// schema. Violations are findings: a descriptor missing its Name still
// describes a processable dataset.
func ValidateDescriptor(desc map[string]any) []Finding {
	ctx := cuecontext.New()
	schema := ctx.CompileString(descriptorSchema).LookupPath(cue.ParsePath("#Descriptor"))
	if err := schema.Err(); err != nil {
		// The schema is a compile-time constant; this fires only on a
		// programming error.
		return []Finding{{Code: FindingDescriptorInvalid, Message: fmt.Sprintf("descriptor schema: %v", err)}}
	}

	data := ctx.Encode(desc)
	if err := data.Err(); err != nil {
		return []Finding{{Code: FindingDescriptorInvalid, Message: fmt.Sprintf("encode descriptor: %v", err)}}
	}

	if err := schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		var findings []Finding
		for _, e := range cueerrors.Errors(err) {
			findings = append(findings, Finding{
				Code:    FindingDescriptorInvalid,
				Message: e.Error(),
			})
		}
		return findings
	}
	return nil
}

func readDescriptor(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", descriptorName, err)
	}
	var desc map[string]any
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", descriptorName, err)
	}
	return desc, nil
}

func renderDescriptorValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
