// Package table reshapes wide BIDS tabular files (participants.tsv,
// *_events.tsv) into long key-value records and cross-validates their
// columns against the declared JSON sidecar schema.
//
// Missing tables and undocumented columns are steady-state facts recorded
// as findings and flags; only filesystem read failures are errors.
package table
