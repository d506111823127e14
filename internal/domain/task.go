// Package domain contains pure scheduling types with ZERO infrastructure
// imports. This is the innermost ring — it depends on nothing.
package domain

import "fmt"

// ─── Task & Job ─────────────────────────────────────────────────────────────

// Task is the static description of a periodic real-time task, measured on
// a reference processor of speed 1.
//
//   - Exec is the worst-case execution time e.
//   - Deadline is the relative deadline d.
//   - Period is the period T.
//
// Invariant: Period >= 1, 1 <= Deadline <= Period, Exec >= 1.
type Task struct {
	ID       int
	Exec     int64
	Deadline int64
	Period   int64
}

// NewTask constructs a Task, validating the invariants above.
func NewTask(id int, exec, deadline, period int64) (Task, error) {
	if exec < 1 {
		return Task{}, fmt.Errorf("task %d: exec must be >= 1, got %d", id, exec)
	}
	if period < 1 {
		return Task{}, fmt.Errorf("task %d: period must be >= 1, got %d", id, period)
	}
	if deadline < 1 || deadline > period {
		return Task{}, fmt.Errorf("task %d: deadline must be in [1, period], got %d (period %d)", id, deadline, period)
	}
	return Task{ID: id, Exec: exec, Deadline: deadline, Period: period}, nil
}

// Utilization returns e/T. Used only by the necessary-condition check and
// CSV export — the simulator's hot path stays in integer arithmetic.
func (t Task) Utilization() float64 {
	return float64(t.Exec) / float64(t.Period)
}

// Job is the mutable per-activation runtime state derived from a Task. A
// fresh set of Jobs is created per simulation and discarded when the
// simulation ends; a Job never outlives a single Scheduler run.
type Job struct {
	TaskID int
	Exec   int64 // static execution time, carried for renewal
	Period int64 // static period, carried for renewal

	Arrival     int64 // arrival_timepoint
	InstanceID  int   // 0-based release count
	Remaining   int64 // remaining_time
	AbsDeadline int64 // abs_deadline
}

// SpawnInitialJob returns a task's first activation: arrival=0, instance=0,
// remaining=e, abs_deadline=d.
func SpawnInitialJob(t Task) *Job {
	return &Job{
		TaskID:      t.ID,
		Exec:        t.Exec,
		Period:      t.Period,
		Arrival:     0,
		InstanceID:  0,
		Remaining:   t.Exec,
		AbsDeadline: t.Deadline,
	}
}

// Renew advances a completed job to its next periodic release.
// Precondition: Remaining <= 0.
func (j *Job) Renew() {
	j.Arrival += j.Period
	j.InstanceID++
	j.Remaining = j.Exec
	j.AbsDeadline += j.Period
}

// Less implements the EDF priority order: earlier absolute deadline first,
// ties broken by ascending task id for determinism across runs.
func (j *Job) Less(other *Job) bool {
	if j.AbsDeadline != other.AbsDeadline {
		return j.AbsDeadline < other.AbsDeadline
	}
	return j.TaskID < other.TaskID
}
