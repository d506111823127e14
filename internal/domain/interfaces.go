package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers. Infrastructure
// implements them; the search engine depends on them.

// Simulator abstracts the global-EDF discrete-event engine. The search
// engine depends on this interface rather than the concrete scheduler so
// tests can substitute a stub simulator.
type Simulator interface {
	// Run decides schedulability of the given subset of tasks on platform.
	// truncatedLCM <= 0 means "no truncation" (simulate the full
	// hyperperiod). Truncated reports whether the horizon simulated was
	// shorter than the full hyperperiod.
	Run(tasks []Task, platform Platform, truncatedLCM int64) (feasible bool, truncated bool)
}

// OutputSink abstracts the five append-only CSV streams the search engine
// writes decisions to, so the engine can be tested without touching disk.
type OutputSink interface {
	WritePlatform(platform Platform) error
	WriteTaskQuadruples(tasks []Task) error
	WriteHyperedge(taskIDs []int) error
	WriteNegativeSample(taskIDs []int) error
	WriteMUC(taskIDs []int) error
	Close() error
}
