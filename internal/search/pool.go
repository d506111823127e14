package search

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
)

// PoolConfig controls root-subset search concurrency.
type PoolConfig struct {
	// MaxConcurrent bounds the number of root subsets searched in
	// parallel. MaxConcurrent=1 (the default) preserves spec.md §5's
	// single-threaded cooperative model and therefore byte-identical
	// output ordering across runs with the same seed. Raising it trades
	// that exact row-order determinism (decisions themselves are still
	// deterministic; only their append order across workers is not) for
	// throughput, per spec.md §5's "allowed implementation choice".
	MaxConcurrent int
}

// DefaultPoolConfig returns the single-worker default.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxConcurrent: 1}
}

// Pool shards root-subset invocations of Engine.Search across a bounded
// number of goroutines. Each root draws from its own *rand.Rand seeded
// deterministically from (baseSeed, root index), so which task ids a given
// root samples is reproducible regardless of scheduling order; Engine's own
// positive_set/negative_set/muc_set are safe for concurrent access via its
// internal read-mostly lock (spec.md §5).
type Pool struct {
	cfg     PoolConfig
	engine  *Engine
	sampler Sampler

	sem chan struct{}

	completed int64
	failed    int64
}

// NewPool constructs a Pool driving engine's search via sampler.
func NewPool(cfg PoolConfig, engine *Engine, sampler Sampler) *Pool {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &Pool{
		cfg:     cfg,
		engine:  engine,
		sampler: sampler,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Run performs generate_hyperedges(maxSize, numSamples): repeatedly samples
// a root subset and invokes Engine.Search on it, numSamples times. Returns
// the first IO error surfaced by any root search, after all in-flight
// workers have finished (does not leave goroutines running past return).
func (p *Pool) Run(ctx context.Context, baseSeed int64, taskIDs []int, maxSize, numSamples int) error {
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	for i := 0; i < numSamples; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case p.sem <- struct{}{}:
		}

		wg.Add(1)
		go func(rootIndex int) {
			defer wg.Done()
			defer func() { <-p.sem }()

			rng := rand.New(rand.NewSource(baseSeed + int64(rootIndex)))
			root := p.sampler.SampleRoot(rng, taskIDs, maxSize)

			posBefore, negBefore, mucBefore := p.engine.Counts()
			_, err := p.engine.Search(root)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				atomic.AddInt64(&p.failed, 1)
				return
			}
			posAfter, negAfter, mucAfter := p.engine.Counts()

			if bandit, ok := p.sampler.(*BanditSampler); ok {
				newDecisions := (posAfter - posBefore) + (negAfter - negBefore) + (mucAfter - mucBefore)
				bandit.RecordOutcome(newDecisions)
			}
			atomic.AddInt64(&p.completed, 1)
		}(i)
	}

	wg.Wait()
	return firstErr
}

// Stats reports the pool's cumulative root-search outcomes.
type Stats struct {
	Completed int64
	Failed    int64
	MaxSlots  int
}

// Stats returns the pool's current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
		MaxSlots:  p.cfg.MaxConcurrent,
	}
}
