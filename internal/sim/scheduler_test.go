package sim

import (
	"testing"

	"github.com/unccx/edfgen/internal/domain"
)

func mustTask(t *testing.T, id int, exec, deadline, period int64) domain.Task {
	t.Helper()
	tk, err := domain.NewTask(id, exec, deadline, period)
	if err != nil {
		t.Fatalf("NewTask(%d): %v", id, err)
	}
	return tk
}

func platformOf(speeds ...int64) domain.Platform {
	procs := make([]*domain.Processor, len(speeds))
	for i, s := range speeds {
		procs[i] = domain.NewProcessor("p", s)
	}
	return domain.Platform{Processors: procs}
}

func TestRun_UniprocessorTwoTasksSchedulable(t *testing.T) {
	tasks := []domain.Task{
		mustTask(t, 1, 25, 50, 50),
		mustTask(t, 2, 30, 75, 75),
	}
	s, err := New(nil, tasks, platformOf(1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible, truncated := s.Run(0)
	if !feasible {
		t.Errorf("feasible = false, want true")
	}
	if truncated {
		t.Errorf("truncated = true, want false")
	}
	if got := s.Hyperperiod(); got != 150 {
		t.Errorf("Hyperperiod() = %d, want 150", got)
	}
}

func TestRun_FourProcessorsFiveIdenticalTasksSchedulable(t *testing.T) {
	var tasks []domain.Task
	for i := 1; i <= 5; i++ {
		tasks = append(tasks, mustTask(t, i, 6, 10, 10))
	}
	s, err := New(nil, tasks, platformOf(1, 1, 1, 1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible, _ := s.Run(0)
	if !feasible {
		t.Errorf("feasible = false, want true")
	}
}

func TestRun_OverloadInfeasible(t *testing.T) {
	var tasks []domain.Task
	for i := 1; i <= 3; i++ {
		tasks = append(tasks, mustTask(t, i, 5, 10, 10))
	}
	s, err := New(nil, tasks, platformOf(1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible, _ := s.Run(0)
	if feasible {
		t.Errorf("feasible = true, want false (U = 1.5 > 1)")
	}
}

// TestRun_MUCDiscovery exercises a task set of size 4 whose every 3-subset
// is schedulable but the full 4-set is not, matching spec's MUC scenario.
// Three tasks of modest utilization share one processor comfortably; the
// fourth, added on top, pushes total utilization over the single
// processor's capacity.
func TestRun_MUCDiscovery(t *testing.T) {
	base := []domain.Task{
		mustTask(t, 1, 3, 10, 10),
		mustTask(t, 2, 3, 10, 10),
		mustTask(t, 3, 3, 10, 10),
	}
	s, err := New(nil, base, platformOf(1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible, _ := s.Run(0)
	if !feasible {
		t.Fatalf("3-subset must be schedulable, got infeasible (U = %v)", sumUtil(base))
	}

	full := append(append([]domain.Task{}, base...), mustTask(t, 4, 3, 10, 10))
	s2, err := New(nil, full, platformOf(1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible2, _ := s2.Run(0)
	if feasible2 {
		t.Fatalf("4-set must be infeasible, got feasible (U = %v)", sumUtil(full))
	}
}

func sumUtil(tasks []domain.Task) float64 {
	var u float64
	for _, tk := range tasks {
		u += tk.Utilization()
	}
	return u
}

func TestRun_CeilingGuardSingleStep(t *testing.T) {
	task := mustTask(t, 1, 1, 100, 100)
	s, err := New(nil, []domain.Task{task}, platformOf(3), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible, _ := s.Run(0)
	if !feasible {
		t.Fatalf("feasible = false, want true")
	}
	if got := s.processors[0].History; got != nil {
		t.Fatalf("unexpected history recorded with recordHistory=false: %v", got)
	}

	s2, err := New(nil, []domain.Task{task}, platformOf(3), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s2.Run(0)
	hist := s2.processors[0].History
	if len(hist) == 0 {
		t.Fatalf("expected recorded history, got none")
	}
	if hist[0].Duration != 1 {
		t.Errorf("first step duration = %d, want 1 (ceil(1/3))", hist[0].Duration)
	}
}

func TestRun_TruncationShortensHorizonAndFlags(t *testing.T) {
	tasks := []domain.Task{mustTask(t, 1, 1, 10, 10)}
	s, err := New(nil, tasks, platformOf(1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Hyperperiod() != 10 {
		t.Fatalf("Hyperperiod() = %d, want 10", s.Hyperperiod())
	}
	_, truncated := s.Run(5)
	if !truncated {
		t.Errorf("truncated = false, want true when truncatedLCM < hyperperiod")
	}
}

func TestRun_EmptyTaskSet(t *testing.T) {
	s, err := New(nil, nil, platformOf(1), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	feasible, truncated := s.Run(0)
	if feasible || truncated {
		t.Errorf("Run() on empty task set = (%v, %v), want (false, false) — callers must short-circuit empty sets before invoking the simulator", feasible, truncated)
	}
}

func TestNew_MissingPlatform(t *testing.T) {
	_, err := New(nil, []domain.Task{mustTask(t, 1, 1, 1, 1)}, domain.Platform{}, false)
	if err != domain.ErrMissingPlatform {
		t.Fatalf("err = %v, want ErrMissingPlatform", err)
	}
}

func TestGlobalEDF_EmptySubsetIsFeasible(t *testing.T) {
	var g GlobalEDF
	feasible, truncated := g.Run(nil, platformOf(1), 0)
	if !feasible || truncated {
		t.Errorf("Run(nil, ...) = (%v, %v), want (true, false)", feasible, truncated)
	}
}

func TestGlobalEDF_Monotonicity(t *testing.T) {
	var g GlobalEDF
	platform := platformOf(1, 1, 1, 1)
	var tasks []domain.Task
	for i := 1; i <= 5; i++ {
		tasks = append(tasks, mustTask(t, i, 6, 10, 10))
	}
	bFeasible, _ := g.Run(tasks, platform, 0)
	if !bFeasible {
		t.Fatalf("superset must be feasible for this fixture")
	}
	for i := range tasks {
		subset := append(append([]domain.Task{}, tasks[:i]...), tasks[i+1:]...)
		aFeasible, _ := g.Run(subset, platform, 0)
		if !aFeasible {
			t.Errorf("subset missing task %d must be feasible when the full set is", tasks[i].ID)
		}
	}
}

func TestLCM(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{4, 6, 12},
		{1, 1, 1},
		{5, 7, 35},
		{10, 10, 10},
	}
	for _, c := range cases {
		if got := lcm(c.a, c.b); got != c.want {
			t.Errorf("lcm(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
