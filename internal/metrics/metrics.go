// Package metrics exposes Prometheus counters and gauges for the search
// engine's progress, so a long generation run can be watched live via
// internal/api's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DecisionsTotal counts search verdicts by outcome.
var DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "edfgen",
	Name:      "decisions_total",
	Help:      "Total subset decisions by verdict.",
}, []string{"verdict"})

// MUCTotal counts Minimal Unschedulable Combinations discovered.
var MUCTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "edfgen",
	Name:      "muc_total",
	Help:      "Total Minimal Unschedulable Combinations discovered.",
})

// SimulationStepsTotal counts simulator ticks across every invocation —
// useful to catch pathological step counts that would indicate a broken
// ceiling-step invariant.
var SimulationStepsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "edfgen",
	Name:      "simulation_steps_total",
	Help:      "Total discrete-event simulation ticks performed.",
})

// SearchDepth is the current recursion depth of the subset search.
var SearchDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "edfgen",
	Name:      "search_depth",
	Help:      "Current recursion depth of the subset-decomposition search.",
})

// PositiveSetSize, NegativeSetSize, MUCSetSize track the search engine's
// memoized set sizes.
var (
	PositiveSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edfgen",
		Name:      "positive_set_size",
		Help:      "Current size of the positive_set (schedulable subsets).",
	})
	NegativeSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edfgen",
		Name:      "negative_set_size",
		Help:      "Current size of the negative_set (unschedulable subsets).",
	})
	MUCSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edfgen",
		Name:      "muc_set_size",
		Help:      "Current size of the muc_set (Minimal Unschedulable Combinations).",
	})
)

// Observer implements search.Observer over the package's Prometheus
// collectors, letting the search engine report progress without importing
// the prometheus client directly.
type Observer struct{}

// ObserveDecision records a search verdict.
func (Observer) ObserveDecision(feasible bool) {
	if feasible {
		DecisionsTotal.WithLabelValues("feasible").Inc()
	} else {
		DecisionsTotal.WithLabelValues("infeasible").Inc()
	}
}

// ObserveMUC records a newly discovered MUC.
func (Observer) ObserveMUC() { MUCTotal.Inc() }

// ObserveSearchDepth updates the current recursion-depth gauge.
func (Observer) ObserveSearchDepth(depth int) { SearchDepth.Set(float64(depth)) }

// ObserveSetSizes updates the three memo-set size gauges.
func (Observer) ObserveSetSizes(positive, negative, muc int) {
	PositiveSetSize.Set(float64(positive))
	NegativeSetSize.Set(float64(negative))
	MUCSetSize.Set(float64(muc))
}

// ObserveSimulationStep increments the simulation-steps counter. Callers in
// internal/sim invoke this once per discrete-event tick.
func ObserveSimulationStep() { SimulationStepsTotal.Inc() }
