// Package genrand generates the random platform and task table a run
// starts from, matching the reference generator's distributions: processor
// speed uniform in [1,9], task execution time and period uniform in
// [1,49].
package genrand

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/unccx/edfgen/internal/domain"
)

// PlatformParams configures platform generation.
type PlatformParams struct {
	NumProcessors int
	SpeedMin      int64 // inclusive, default 1
	SpeedMax      int64 // inclusive, default 9 (reference: randint(1,10) exclusive upper bound)
}

// DefaultPlatformParams mirrors the reference generator's randint(1, 10).
func DefaultPlatformParams(numProcessors int) PlatformParams {
	return PlatformParams{NumProcessors: numProcessors, SpeedMin: 1, SpeedMax: 9}
}

// Platform builds a platform of p.NumProcessors processors with speed
// drawn uniformly in [p.SpeedMin, p.SpeedMax], deterministic for a given
// seed.
func Platform(seed int64, p PlatformParams) domain.Platform {
	if p.SpeedMin <= 0 {
		p.SpeedMin = 1
	}
	if p.SpeedMax < p.SpeedMin {
		p.SpeedMax = p.SpeedMin
	}
	rng := rand.New(rand.NewSource(seed))

	procs := make([]*domain.Processor, p.NumProcessors)
	span := p.SpeedMax - p.SpeedMin + 1
	for i := 0; i < p.NumProcessors; i++ {
		speed := p.SpeedMin + rng.Int63n(span)
		procs[i] = domain.NewProcessor(fmt.Sprintf("P%d", i), speed)
	}

	return domain.Platform{
		Seed:       seed,
		SpeedMin:   p.SpeedMin,
		SpeedMax:   p.SpeedMax,
		Processors: procs,
	}
}

// TaskParams configures task-table generation.
type TaskParams struct {
	NumTasks int
	ExecMin  int64 // default 1
	ExecMax  int64 // default 49 (reference: randint(1,50) exclusive upper bound)

	// ImplicitDeadline, when true, sets d = T for every task (the
	// reference generator's default). When false, d is drawn
	// independently and uniformly in [1, T].
	ImplicitDeadline bool
}

// DefaultTaskParams mirrors the reference generator's randint(1, 50).
func DefaultTaskParams(numTasks int, implicitDeadline bool) TaskParams {
	return TaskParams{NumTasks: numTasks, ExecMin: 1, ExecMax: 49, ImplicitDeadline: implicitDeadline}
}

// Tasks builds a task table of p.NumTasks tasks with execution time and
// period drawn uniformly in [p.ExecMin, p.ExecMax], deterministic for a
// given seed. Tasks whose derived utilization exceeds 1 are filtered out
// before being returned (spec.md §3: "tasks with u > 1 are filtered out
// before search"). Returned tasks are sorted ascending by utilization,
// matching the task_quadruples.csv ordering spec.md §6 requires, but
// retain their original generation-order ids.
func Tasks(seed int64, p TaskParams) []domain.Task {
	if p.ExecMin <= 0 {
		p.ExecMin = 1
	}
	if p.ExecMax < p.ExecMin {
		p.ExecMax = p.ExecMin
	}
	rng := rand.New(rand.NewSource(seed))
	span := p.ExecMax - p.ExecMin + 1

	tasks := make([]domain.Task, 0, p.NumTasks)
	for id := 0; id < p.NumTasks; id++ {
		e := p.ExecMin + rng.Int63n(span)
		period := p.ExecMin + rng.Int63n(span)

		deadline := period
		if !p.ImplicitDeadline {
			deadline = 1 + rng.Int63n(period)
		}

		t, err := domain.NewTask(id, e, deadline, period)
		if err != nil {
			// e, period >= 1 and 1 <= deadline <= period by construction;
			// NewTask cannot reject a task built this way.
			panic(fmt.Sprintf("genrand: impossible invalid task: %v", err))
		}
		if t.Utilization() > 1 {
			continue
		}
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Utilization() < tasks[j].Utilization()
	})
	return tasks
}
