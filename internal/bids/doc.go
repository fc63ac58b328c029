// Package bids resolves BIDS dataset directories into read-only layout
// views: dataset kind (standard or derivative), subjects, sessions, tasks,
// runs, and a relative-path file index.
//
// A Layout is built once per dataset-processing call and never mutated or
// shared afterward. Resolution is a pure filesystem read; no state is
// written anywhere under the dataset root.
package bids
