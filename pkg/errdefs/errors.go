// Package errdefs defines the error taxonomy shared by every milo
// package. Callers match with errors.Is; the wrapping message names the
// precondition that failed and, where one exists, the remedial step.
package errdefs

import "errors"

var (
	// ErrInvalidParameter covers out-of-range proportions, unrecognized
	// weighting schemes and missing required embeddings.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidInputType is returned when the supplied object is neither
	// a recognized dataset nor a recognized graph.
	ErrInvalidInputType = errors.New("invalid input type")

	// ErrDimensionMismatch covers matrix/vector length disagreements.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrMissingPrecomputation is returned when a required derived
	// artifact has not been computed yet.
	ErrMissingPrecomputation = errors.New("missing precomputation")
)
