// Package sim implements the global-EDF discrete-event simulator: the
// exact engine that decides schedulability of a task set on a fixed
// multiprocessor platform by simulating execution until the hyperperiod
// (or a truncation bound).
package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/unccx/edfgen/internal/domain"
	"github.com/unccx/edfgen/internal/dsa"
	"github.com/unccx/edfgen/internal/metrics"
)

// Scheduler is a single discrete-event global-EDF simulation. It is not
// reused across subsets — the search engine constructs a fresh Scheduler
// (and fresh Jobs) per candidate subset, per spec's ownership model.
type Scheduler struct {
	log *logrus.Entry

	processors []*domain.Processor
	jobs       []*domain.Job
	now        int64
	ready      *dsa.JobHeap

	lcm int64

	// recordHistory enables per-processor execution history, needed only
	// for downstream Gantt-style visualization (out of this module's
	// scope) — off by default in the search engine's hot path.
	recordHistory bool
}

// New constructs a Scheduler over platform, sorted by speed descending
// (stable), ready to run the given task set.
func New(log *logrus.Entry, tasks []domain.Task, platform domain.Platform, recordHistory bool) (*Scheduler, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if len(platform.Processors) == 0 {
		log.Error("missing platform when simulating")
		return nil, domain.ErrMissingPlatform
	}

	// Fresh Processor values: the platform's own processors are shared by
	// every Run (and by concurrent Pool workers) and must not carry state.
	procs := platform.SortedBySpeedDesc()
	for i, p := range procs {
		procs[i] = domain.NewProcessor(p.ID, p.Speed)
	}

	s := &Scheduler{
		log:           log,
		processors:    procs,
		ready:         dsa.NewJobHeap(),
		lcm:           1,
		recordHistory: recordHistory,
	}

	if len(tasks) == 0 {
		log.Warn("empty task set presented to simulator")
		return s, nil
	}

	s.jobs = make([]*domain.Job, 0, len(tasks))
	for _, t := range tasks {
		s.jobs = append(s.jobs, domain.SpawnInitialJob(t))
		s.lcm = lcm(s.lcm, t.Period)
	}

	return s, nil
}

// Hyperperiod returns the LCM of the task set's periods.
func (s *Scheduler) Hyperperiod() int64 { return s.lcm }

// Run simulates the task set until the effective horizon and returns
// whether every deadline was met. truncatedLCM <= 0 means "no truncation":
// the full hyperperiod is simulated. The second return value reports
// whether the simulated horizon was shorter than the full hyperperiod.
func (s *Scheduler) Run(truncatedLCM int64) (feasible bool, truncated bool) {
	if len(s.jobs) == 0 {
		// The search engine already short-circuits S == {} to true before
		// ever reaching the simulator (spec §4.4 step 1); a simulator
		// invoked directly on an empty set is a degenerate caller error,
		// logged and treated conservatively as infeasible per spec §7.
		return false, false
	}

	horizon := s.lcm
	isTruncated := false
	if truncatedLCM > 0 && truncatedLCM < s.lcm {
		horizon = truncatedLCM
		isTruncated = true
	}

	for s.now <= horizon {
		if s.anyDeadlineMissed() {
			return false, isTruncated
		}

		s.priorityTick()
		s.allocationTick()

		delta := s.nextEventDelta()
		if delta <= 0 {
			s.log.WithFields(logrus.Fields{
				"now":   s.now,
				"delta": delta,
			}).Error("simulation step <= 0 would cause an infinite loop, aborting conservatively")
			return false, isTruncated
		}

		for _, p := range s.processors {
			p.Execute(s.now, delta, s.recordHistory)
		}
		s.now += delta
		metrics.ObserveSimulationStep()
	}

	// Re-check once more at the boundary: a scheduling event beyond the
	// horizon can hide a miss that occurred within (last_event, horizon].
	if s.anyDeadlineMissed() {
		return false, isTruncated
	}
	return true, isTruncated
}

// anyDeadlineMissed reports whether any job has reached or passed its
// absolute deadline while work remains.
func (s *Scheduler) anyDeadlineMissed() bool {
	for _, j := range s.jobs {
		if s.now >= j.AbsDeadline && j.Remaining > 0 {
			s.log.WithField("task_id", j.TaskID).Debug("task exceeded its deadline")
			return true
		}
	}
	return false
}

// priorityTick rebuilds the ready queue from scratch: every released and
// unfinished job (arrival <= now && remaining > 0) re-enters the heap,
// including jobs still assigned to a processor from the previous tick
// (allocationTick then detaches every processor before reassigning),
// enabling global-EDF preemption and migration.
func (s *Scheduler) priorityTick() {
	s.ready.Reset()
	for _, j := range s.jobs {
		if j.Arrival <= s.now && j.Remaining > 0 {
			s.ready.Push(j)
		}
	}
}

// allocationTick detaches every processor, then greedily assigns the
// highest-priority ready job to each processor in speed-descending order.
// At any instant, the m highest-priority released jobs occupy the m
// fastest processors (fewer if fewer jobs are released).
func (s *Scheduler) allocationTick() {
	for _, p := range s.processors {
		p.Detach()
	}
	for _, p := range s.processors {
		job := s.ready.Pop()
		if job == nil {
			break
		}
		p.Assign(job, s.now)
	}
}

// nextEventDelta returns the simulated-time distance to the next schedule
// event: the earliest of (a) a busy processor's completion time and (b) an
// unreleased job's arrival time.
func (s *Scheduler) nextEventDelta() int64 {
	next := int64(-1)
	for _, p := range s.processors {
		if end, busy := p.EndTimepoint(); busy {
			if next < 0 || end < next {
				next = end
			}
		}
	}
	for _, j := range s.jobs {
		if j.Arrival > s.now {
			if next < 0 || j.Arrival < next {
				next = j.Arrival
			}
		}
	}
	if next < 0 {
		return 0
	}
	return next - s.now
}

// Processors exposes the simulator's processor list (sorted by speed
// descending) for callers that want post-run history, e.g. a Gantt export.
func (s *Scheduler) Processors() []*domain.Processor { return s.processors }

// GlobalEDF adapts Scheduler to domain.Simulator: every call builds a fresh
// Scheduler (fresh Jobs, fresh processor state) so the search engine can
// reuse one GlobalEDF across every candidate subset without cross-subset
// state leaking in.
type GlobalEDF struct {
	Log *logrus.Entry
}

// Run implements domain.Simulator.
func (g GlobalEDF) Run(tasks []domain.Task, platform domain.Platform, truncatedLCM int64) (bool, bool) {
	if len(tasks) == 0 {
		return true, false
	}
	s, err := New(g.Log, tasks, platform, false)
	if err != nil {
		return false, false
	}
	return s.Run(truncatedLCM)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
