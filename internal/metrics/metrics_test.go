package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestObserver_ObserveDecisionIncrementsLabeledCounter(t *testing.T) {
	before := counterValue(t, DecisionsTotal.WithLabelValues("feasible"))

	var obs Observer
	obs.ObserveDecision(true)

	after := counterValue(t, DecisionsTotal.WithLabelValues("feasible"))
	if after != before+1 {
		t.Errorf("feasible counter = %v, want %v", after, before+1)
	}
}

func TestObserver_ObserveDecisionInfeasible(t *testing.T) {
	before := counterValue(t, DecisionsTotal.WithLabelValues("infeasible"))

	var obs Observer
	obs.ObserveDecision(false)

	after := counterValue(t, DecisionsTotal.WithLabelValues("infeasible"))
	if after != before+1 {
		t.Errorf("infeasible counter = %v, want %v", after, before+1)
	}
}

func TestObserver_ObserveMUCIncrementsCounter(t *testing.T) {
	before := counterValue(t, MUCTotal)

	var obs Observer
	obs.ObserveMUC()

	after := counterValue(t, MUCTotal)
	if after != before+1 {
		t.Errorf("muc counter = %v, want %v", after, before+1)
	}
}

func TestObserver_ObserveSearchDepthSetsGauge(t *testing.T) {
	var obs Observer
	obs.ObserveSearchDepth(7)

	if got := counterValue(t, SearchDepth); got != 7 {
		t.Errorf("SearchDepth = %v, want 7", got)
	}
}

func TestObserver_ObserveSetSizesSetsAllThreeGauges(t *testing.T) {
	var obs Observer
	obs.ObserveSetSizes(10, 20, 3)

	if got := counterValue(t, PositiveSetSize); got != 10 {
		t.Errorf("PositiveSetSize = %v, want 10", got)
	}
	if got := counterValue(t, NegativeSetSize); got != 20 {
		t.Errorf("NegativeSetSize = %v, want 20", got)
	}
	if got := counterValue(t, MUCSetSize); got != 3 {
		t.Errorf("MUCSetSize = %v, want 3", got)
	}
}

func TestObserveSimulationStep(t *testing.T) {
	before := counterValue(t, SimulationStepsTotal)

	ObserveSimulationStep()

	after := counterValue(t, SimulationStepsTotal)
	if after != before+1 {
		t.Errorf("SimulationStepsTotal = %v, want %v", after, before+1)
	}
}
