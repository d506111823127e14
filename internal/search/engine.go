// Package search implements the recursive subset-decomposition
// schedulability search: the engine that decides, for every task subset it
// visits, whether that subset is schedulable on the fixed platform, and
// streams the verdicts to the five output streams.
package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/unccx/edfgen/internal/domain"
	"github.com/unccx/edfgen/internal/dsa"
)

// Observer receives search progress events for metrics export. Engine
// treats a nil Observer as a no-op.
type Observer interface {
	ObserveDecision(feasible bool)
	ObserveMUC()
	ObserveSearchDepth(depth int)
	ObserveSetSizes(positive, negative, muc int)
}

// DecisionRecorder persists one subset's verdict for later resume, e.g. the
// store package's *DB.Recorder adapter over its SQLite decisions table.
// Engine treats a nil DecisionRecorder as a no-op, so the store stays
// optional (store package doc: "CSV output remains the mandatory interface").
type DecisionRecorder interface {
	RecordDecision(subset string, verdict, isMUC bool) error
}

type noopObserver struct{}

func (noopObserver) ObserveDecision(bool)      {}
func (noopObserver) ObserveMUC()                {}
func (noopObserver) ObserveSearchDepth(int)     {}
func (noopObserver) ObserveSetSizes(int, int, int) {}

// Engine owns the search state: positive_set, negative_set, muc_set, and
// the Bloom-filter fast-path in front of them. Safe for concurrent use by
// search.Pool — membership checks take a read lock, insertions a write
// lock, per spec.md §5's "read-mostly lock" allowed parallelization.
type Engine struct {
	mu sync.RWMutex

	tasksByID map[int]domain.Task
	platform  domain.Platform

	sim  domain.Simulator
	sink domain.OutputSink

	truncatedLCM     int64
	excludeTruncated bool

	// positive/negative map a subset's canonical key to its sorted task-id
	// slice; the slice is retained (not just a present/absent bit) because
	// the superset prune (step 3) must scan positive_set's members.
	positive map[string][]int
	negative map[string][]int
	muc      [][]int

	filter *dsa.BloomFilter

	// sinkMu serializes appends to sink across concurrent Search calls.
	sinkMu sync.Mutex

	recorder DecisionRecorder

	obs Observer
	log *logrus.Entry
}

// New constructs a search Engine over the given task table and platform.
// truncatedLCM <= 0 means no truncation. excludeTruncated, when true, omits
// truncated-but-feasible verdicts from the positive output stream, per the
// Open Question spec.md §9 leaves configurable.
func New(tasks []domain.Task, platform domain.Platform, sim domain.Simulator, sink domain.OutputSink, truncatedLCM int64, excludeTruncated bool, obs Observer, log *logrus.Entry) *Engine {
	if obs == nil {
		obs = noopObserver{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	byID := make(map[int]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return &Engine{
		tasksByID:        byID,
		platform:         platform,
		sim:              sim,
		sink:             sink,
		truncatedLCM:     truncatedLCM,
		excludeTruncated: excludeTruncated,
		positive:         make(map[string][]int),
		negative:         make(map[string][]int),
		filter:           dsa.NewBloomFilter(dsa.DefaultBloomConfig()),
		obs:              obs,
		log:              log,
	}
}

// SortedTaskIDs returns every admitted task id in ascending order — the
// alphabet generate_hyperedges samples root subsets from.
func (e *Engine) SortedTaskIDs() []int {
	ids := make([]int, 0, len(e.tasksByID))
	for id := range e.tasksByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Counts returns the current size of positive_set, negative_set, muc_set.
func (e *Engine) Counts() (positive, negative, muc int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.positive), len(e.negative), len(e.muc)
}

// SetRecorder installs a DecisionRecorder every future verdict is persisted
// through, in addition to the mandatory output.Writer sink. Takes effect
// immediately; a nil recorder (the default) makes recording a no-op. Not
// part of New's signature so existing callers are unaffected by enabling
// the store.
func (e *Engine) SetRecorder(r DecisionRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = r
}

// SeedDecision is one previously recorded subset verdict, as loaded from
// store.DB.LoadDecisions when resuming a run.
type SeedDecision struct {
	Subset  []int
	Verdict bool
	IsMUC   bool
}

// Seed reseeds positive_set, negative_set, muc_set and the Bloom filter
// from previously recorded decisions, letting a resumed run skip subsets a
// killed prior run already decided. Must be called before the first Search
// — the CLI does this once, right after construction, when --run-id names
// a run the store already has decisions for.
func (e *Engine) Seed(decisions []SeedDecision) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range decisions {
		sorted, key := canonicalize(d.Subset)
		if d.Verdict {
			e.positive[key] = sorted
		} else {
			e.negative[key] = sorted
		}
		if d.IsMUC {
			e.muc = append(e.muc, sorted)
		}
		e.filter.Add(sorted)
	}
}

// Search decides schedulability of the given task-id subset, implementing
// spec.md §4.4's nine-step search(S) semantics, and returns the verdict.
// An error return means an output-stream append failed; the verdict is
// still valid and memoized, but the caller must stop driving the search
// (spec.md §4.4: "the search does not fail... IO failures... are surfaced
// to the caller").
func (e *Engine) Search(ids []int) (bool, error) {
	return e.search(ids, 0)
}

func (e *Engine) search(ids []int, depth int) (bool, error) {
	e.obs.ObserveSearchDepth(depth)

	sorted, key := canonicalize(ids)

	// Step 1: empty set.
	if len(sorted) == 0 {
		return true, nil
	}

	// Step 2: memo hit. The Bloom filter answers "was this key ever
	// inserted into positive_set or negative_set" with no false
	// negatives; a negative answer proves neither map holds it and skips
	// both lookups.
	if e.filter.Contains(sorted) {
		e.mu.RLock()
		_, isPositive := e.positive[key]
		_, isNegative := e.negative[key]
		e.mu.RUnlock()
		if isPositive {
			return true, nil
		}
		if isNegative {
			return false, nil
		}
	}

	// Step 3: superset prune (positive). Not recorded anywhere, per spec.
	if e.hasPositiveSuperset(sorted) {
		return true, nil
	}

	// Step 4: necessary utilization condition.
	necessaryHolds := e.systemUtilization(sorted) <= 1.0

	// Step 5: MUC prune (negative).
	mucHit := necessaryHolds && e.hasContainingMUC(sorted)

	var feasible bool
	var truncated bool
	if necessaryHolds && !mucHit {
		// Step 6: decide via simulation.
		tasks := e.taskSlice(sorted)
		feasible, truncated = e.sim.Run(tasks, e.platform, e.truncatedLCM)
	}

	if feasible && truncated && e.excludeTruncated {
		// A weak verdict per spec.md §9: the caller asked truncated-feasible
		// subsets not be recorded as positive at all. Treat as undecided —
		// report true upward (this invocation's immediate result still
		// reflects what the simulator found) but do not memoize or emit.
		e.obs.ObserveDecision(true)
		return true, nil
	}

	if feasible {
		// Step 7: feasible branch.
		e.recordPositive(sorted, key)
		e.obs.ObserveDecision(true)
		e.sinkMu.Lock()
		err := e.sink.WriteHyperedge(sorted)
		e.sinkMu.Unlock()
		if err != nil {
			return true, fmt.Errorf("append hyperedge: %w", err)
		}
		return true, nil
	}

	// Step 8: infeasible branch.
	e.recordNegative(sorted, key)
	e.obs.ObserveDecision(false)
	e.sinkMu.Lock()
	err := e.sink.WriteNegativeSample(sorted)
	e.sinkMu.Unlock()
	if err != nil {
		return false, fmt.Errorf("append negative sample: %w", err)
	}

	allChildrenFeasible := true
	for _, removeID := range sorted {
		child := without(sorted, removeID)
		childFeasible, err := e.search(child, depth+1)
		if err != nil {
			return false, err
		}
		if !childFeasible {
			allChildrenFeasible = false
		}
	}

	if allChildrenFeasible {
		e.recordMUC(sorted, key)
		e.obs.ObserveMUC()
		e.sinkMu.Lock()
		err := e.sink.WriteMUC(sorted)
		e.sinkMu.Unlock()
		if err != nil {
			return false, fmt.Errorf("append MUC: %w", err)
		}
	}

	return false, nil
}

func (e *Engine) recordPositive(sorted []int, key string) {
	e.mu.Lock()
	e.positive[key] = sorted
	e.filter.Add(sorted)
	pos, neg, muc := len(e.positive), len(e.negative), len(e.muc)
	e.mu.Unlock()
	e.obs.ObserveSetSizes(pos, neg, muc)
	e.record(key, true, false)
}

func (e *Engine) recordNegative(sorted []int, key string) {
	e.mu.Lock()
	e.negative[key] = sorted
	e.filter.Add(sorted)
	pos, neg, muc := len(e.positive), len(e.negative), len(e.muc)
	e.mu.Unlock()
	e.obs.ObserveSetSizes(pos, neg, muc)
	e.record(key, false, false)
}

func (e *Engine) recordMUC(sorted []int, key string) {
	e.mu.Lock()
	e.muc = append(e.muc, sorted)
	pos, neg, muc := len(e.positive), len(e.negative), len(e.muc)
	e.mu.Unlock()
	e.obs.ObserveSetSizes(pos, neg, muc)
	e.record(key, false, true)
}

// record persists a subset verdict through the optional DecisionRecorder.
// A recording failure is logged, never propagated: the decisions table is
// a resumability aid, not part of the mandatory CSV output contract
// (store package doc), so losing one row must not abort an otherwise-valid run.
func (e *Engine) record(key string, verdict, isMUC bool) {
	e.mu.RLock()
	recorder := e.recorder
	e.mu.RUnlock()
	if recorder == nil {
		return
	}
	if err := recorder.RecordDecision(key, verdict, isMUC); err != nil {
		e.log.WithError(err).WithField("subset", key).Warn("failed to persist decision")
	}
}

// hasPositiveSuperset reports whether positive_set contains any P ⊇ sorted.
func (e *Engine) hasPositiveSuperset(sorted []int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, p := range e.positive {
		if isSupersetOf(p, sorted) {
			return true
		}
	}
	return false
}

// hasContainingMUC reports whether muc_set contains any M ⊆ sorted.
func (e *Engine) hasContainingMUC(sorted []int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, m := range e.muc {
		if isSupersetOf(sorted, m) {
			return true
		}
	}
	return false
}

// systemUtilization computes U(S) = (Σ u_i) / (Σ speed_p / speed_max).
func (e *Engine) systemUtilization(sorted []int) float64 {
	var sumU float64
	for _, id := range sorted {
		sumU += e.tasksByID[id].Utilization()
	}
	maxSpeed := e.platform.MaxSpeed()
	if maxSpeed == 0 {
		return sumU
	}
	speedCapacity := float64(e.platform.SpeedSum()) / float64(maxSpeed)
	if speedCapacity == 0 {
		return sumU
	}
	return sumU / speedCapacity
}

func (e *Engine) taskSlice(sorted []int) []domain.Task {
	tasks := make([]domain.Task, len(sorted))
	for i, id := range sorted {
		tasks[i] = e.tasksByID[id]
	}
	return tasks
}

// canonicalize returns a freshly sorted ascending copy of ids and its
// string encoding, the map key every subset is addressed by.
func canonicalize(ids []int) ([]int, string) {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	var b strings.Builder
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return sorted, b.String()
}

// without returns a new sorted slice with id removed. Both inputs are
// assumed sorted ascending.
func without(sorted []int, id int) []int {
	out := make([]int, 0, len(sorted)-1)
	for _, v := range sorted {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// isSupersetOf reports whether every element of sub appears in super. Both
// must be sorted ascending.
func isSupersetOf(super, sub []int) bool {
	if len(sub) > len(super) {
		return false
	}
	i := 0
	for _, v := range sub {
		for i < len(super) && super[i] < v {
			i++
		}
		if i >= len(super) || super[i] != v {
			return false
		}
	}
	return true
}
