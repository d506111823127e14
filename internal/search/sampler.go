package search

import (
	"math"
	"math/rand"
	"sync"
)

// Sampler draws a root task-id subset for generate_hyperedges to invoke
// search on (spec.md §4.4's entry point).
type Sampler interface {
	SampleRoot(rng *rand.Rand, taskIDs []int, maxSize int) []int
}

// UniformSampler samples uniformly without replacement within a sample,
// exactly as spec.md §4.4 describes. This is the contractual default and
// must not be silently replaced.
type UniformSampler struct{}

// SampleRoot returns a subset of size min(maxSize, len(taskIDs)) drawn
// uniformly at random without replacement.
func (UniformSampler) SampleRoot(rng *rand.Rand, taskIDs []int, maxSize int) []int {
	n := len(taskIDs)
	if maxSize > n {
		maxSize = n
	}
	if maxSize <= 0 {
		return nil
	}
	shuffled := append([]int(nil), taskIDs...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return append([]int(nil), shuffled[:maxSize]...)
}

// ─── Bandit sampler ──────────────────────────────────────────────────────
//
// A UCB1 multi-armed bandit over subset-size "arms" (1..max_size), biasing
// root sampling toward sizes that have recently yielded new information —
// a fresh MUC or a fresh positive/negative decision — falling back to
// uniform task-id choice within the chosen size. Opt-in via
// --sampling=bandit; spec.md's default remains uniform.

// BanditConfig configures the UCB1 exploration/exploitation tradeoff.
type BanditConfig struct {
	// ExplorationFactor controls exploration vs exploitation. Classic UCB1
	// uses sqrt(2) ≈ 1.41; we default to 1.5.
	ExplorationFactor float64

	// MinObservations is how many pulls an arm needs before its running
	// mean is trusted; below this threshold the arm always wins (infinite
	// optimism under uncertainty).
	MinObservations int
}

// DefaultBanditConfig returns the sampler's production defaults.
func DefaultBanditConfig() BanditConfig {
	return BanditConfig{
		ExplorationFactor: 1.5,
		MinObservations:   3,
	}
}

// armStats tracks one subset-size arm's running statistics using Welford's
// online algorithm for numerically stable mean/variance.
type armStats struct {
	pulls int
	mean  float64
	m2    float64
}

func (a *armStats) update(reward float64) {
	a.pulls++
	delta := reward - a.mean
	a.mean += delta / float64(a.pulls)
	delta2 := reward - a.mean
	a.m2 += delta * delta2
}

func (a *armStats) variance() float64 {
	if a.pulls < 2 {
		return 0
	}
	return a.m2 / float64(a.pulls-1)
}

// BanditSampler picks the root subset's size via UCB1 over arms 1..max_size,
// then fills that size with a uniform task-id draw.
type BanditSampler struct {
	mu       sync.Mutex
	cfg      BanditConfig
	arms     map[int]*armStats
	total    int
	lastSize int
}

// NewBanditSampler constructs a BanditSampler with the given config.
func NewBanditSampler(cfg BanditConfig) *BanditSampler {
	if cfg.ExplorationFactor <= 0 {
		cfg.ExplorationFactor = 1.5
	}
	if cfg.MinObservations <= 0 {
		cfg.MinObservations = 3
	}
	return &BanditSampler{
		cfg:  cfg,
		arms: make(map[int]*armStats),
	}
}

// SampleRoot selects a subset size via UCB1, then fills it with a uniform
// draw of task ids.
func (b *BanditSampler) SampleRoot(rng *rand.Rand, taskIDs []int, maxSize int) []int {
	n := len(taskIDs)
	if maxSize > n {
		maxSize = n
	}
	if maxSize <= 0 {
		return nil
	}

	size := b.selectSize(maxSize)
	b.mu.Lock()
	b.lastSize = size
	b.mu.Unlock()

	shuffled := append([]int(nil), taskIDs...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return append([]int(nil), shuffled[:size]...)
}

// selectSize computes the UCB1 winner among size-arms 1..maxSize.
//
//	UCB(arm) = mean(arm) + C * sqrt( ln(N) / n(arm) )
func (b *BanditSampler) selectSize(maxSize int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	bestSize := 1
	bestScore := math.Inf(-1)
	for size := 1; size <= maxSize; size++ {
		arm, ok := b.arms[size]
		var score float64
		switch {
		case !ok || arm.pulls < b.cfg.MinObservations:
			score = math.Inf(1) // never pulled enough -> always explore
		default:
			score = arm.mean + b.cfg.ExplorationFactor*math.Sqrt(math.Log(float64(b.total+1))/float64(arm.pulls))
		}
		if score > bestScore {
			bestScore = score
			bestSize = size
		}
	}
	return bestSize
}

// RecordOutcome scores the most recently sampled root subset: reward 1.0
// if the search produced any new decision (positive, negative, or MUC)
// beyond what was already memoized, 0.0 if the root was fully pruned or
// memo-hit without adding information.
func (b *BanditSampler) RecordOutcome(newDecisions int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.lastSize
	if size == 0 {
		return
	}
	arm, ok := b.arms[size]
	if !ok {
		arm = &armStats{}
		b.arms[size] = arm
	}
	reward := 0.0
	if newDecisions > 0 {
		reward = 1.0
	}
	arm.update(reward)
	b.total++
}

// ArmInfo exposes one size-arm's learned statistics, for diagnostics.
type ArmInfo struct {
	Size     int
	Pulls    int
	MeanQ    float64
	Variance float64
}

// Arms returns statistics for every observed size-arm.
func (b *BanditSampler) Arms() []ArmInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ArmInfo, 0, len(b.arms))
	for size, arm := range b.arms {
		out = append(out, ArmInfo{
			Size:     size,
			Pulls:    arm.pulls,
			MeanQ:    arm.mean,
			Variance: arm.variance(),
		})
	}
	return out
}
