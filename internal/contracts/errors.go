package contracts

import "errors"

// Error taxonomy of an analysis run.
// Per-strategy errors are recorded on the result; ErrConfigurationInvalid aborts the run.
var (
	// ErrDataUnavailable: neither trade history nor equity curve exists for a strategy
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedRecord: a trade or equity point failed validation and was skipped
	ErrMalformedRecord = errors.New("malformed record")

	// ErrReferencePopulationMissing: no return distribution for the ticker
	ErrReferencePopulationMissing = errors.New("reference population missing")

	// ErrConfigurationInvalid: thresholds out of range, fails before any strategy work
	ErrConfigurationInvalid = errors.New("configuration invalid")

	// ErrNotFound is returned by collaborator sources for absent records
	ErrNotFound = errors.New("not found")
)
