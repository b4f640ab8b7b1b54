package models

import "errors"

// Error taxonomy for the pipeline. Callers match with errors.Is; components
// wrap these with fmt.Errorf("...: %w", ...) to add project/stage context.
var (
	// ErrConfiguration covers invalid settings such as a bad chunk/overlap
	// relation or an unset embedding dimension. Fatal at startup or first
	// use, never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProviderUnavailable is a transport or auth failure against an
	// embedding or generation backend. Retryable by the caller; not retried
	// internally.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrDimensionMismatch means a vector's length disagrees with the
	// collection's configured dimension. Aborts the operation, never coerced.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCollectionNotFound distinguishes "not yet indexed" from "indexed but
	// empty". Callers can instruct "index first".
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrGeneration covers empty or rejected completions. No partial answer
	// is fabricated.
	ErrGeneration = errors.New("generation failed")
)
