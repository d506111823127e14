package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Simulator errors (spec §7 error taxonomy)
	ErrEmptyTaskSet     = errors.New("empty task set presented to simulator")
	ErrMissingPlatform  = errors.New("no platform assigned to simulator")
	ErrNonPositiveStep  = errors.New("simulation step <= 0, would loop forever")

	// Task/platform construction errors
	ErrInvalidTask      = errors.New("invalid task parameters")
	ErrInvalidProcessor = errors.New("invalid processor parameters")

	// Search engine errors
	ErrUnknownTaskID = errors.New("subset references an unknown task id")

	// CLI / configuration errors
	ErrOutputExists     = errors.New("output directory already contains run files; pass --force to overwrite")
	ErrMissingSeed      = errors.New("seed is required")
	ErrInvalidHyperedgeSize = errors.New("max hyperedge size must be >= 1")
)
