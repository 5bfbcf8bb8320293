package model

import (
	"errors"
)

// Sentinel error kinds for the assessment core. Callers match them with
// errors.Is; wrapped errors carry the detail.
var (
	// ErrConfiguration covers weights that do not sum to 1, malformed level
	// tables and mixed dimension sets. It aborts a report build.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidScoreRange is returned for any externally supplied score
	// outside its allowed range.
	ErrInvalidScoreRange = errors.New("invalid score range")

	// ErrInvalidEvidence is returned at intake for malformed evidence items.
	ErrInvalidEvidence = errors.New("invalid evidence")

	// ErrUnknownDimension is returned when a dimension key cannot be parsed.
	ErrUnknownDimension = errors.New("unknown dimension")

	// ErrNotFound is returned by lookups for unknown subjects or reports.
	ErrNotFound = errors.New("not found")
)

// WarningKind classifies non-fatal conditions recorded on a report.
type WarningKind string

// Warning kinds.
const (
	WarningInsufficientEvidence WarningKind = "insufficient_evidence"
	WarningMissingBenchmark     WarningKind = "missing_benchmark"
)

// Warning is a non-fatal condition the UI renders inline.
type Warning struct {
	Kind      WarningKind  `json:"kind"`
	Dimension *DimensionID `json:"dimension,omitempty"`
	Message   string       `json:"message"`
}
