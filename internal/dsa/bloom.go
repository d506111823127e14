package dsa

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// ─── Bloom Filter ───────────────────────────────────────────────────────────
// Probabilistic membership for task-id subsets, the search engine's fast
// pre-check in front of positive_set/negative_set. Answers "has this subset
// of task ids ever been decided?" with:
//   - No  → definitely not (zero false negatives) — skip both map lookups.
//   - Yes → probably (false positive rate <= configured FPR) — fall
//     through to the maps for the authoritative answer.
//
// O(1) lookup, default 0.1% FP rate sized for 100,000 decided subsets.

// BloomConfig configures a Bloom filter.
type BloomConfig struct {
	ExpectedItems int     // Expected number of subsets
	FPRate        float64 // Desired false positive rate (e.g. 0.001 = 0.1%)
}

// DefaultBloomConfig returns defaults sized for 100,000 decided subsets at
// a 0.1% false positive rate — generous headroom over the subset counts a
// single hyperedge search typically accumulates.
func DefaultBloomConfig() BloomConfig {
	return BloomConfig{
		ExpectedItems: 100_000,
		FPRate:        0.001,
	}
}

// BloomFilter is a space-efficient probabilistic set of task-id subsets.
// Members are sorted ascending []int id lists — search.Engine's canonical
// subset form — rather than a caller-chosen string encoding. Ids are hashed
// in the order given, so the same subset presented in a different order
// hashes to different filter positions; callers pass sorted slices.
type BloomFilter struct {
	mu      sync.RWMutex
	bits    []uint64 // bit array stored as uint64 words
	numBits uint     // total bits
	numHash uint     // number of hash functions
	count   int      // subsets added
}

// NewBloomFilter creates a Bloom filter sized to achieve the target FP rate.
// Optimal sizing formulas:
//
//	m = -(n * ln(p)) / (ln(2)^2)   — total bits
//	k = (m/n) * ln(2)              — hash functions
func NewBloomFilter(cfg BloomConfig) *BloomFilter {
	if cfg.ExpectedItems <= 0 {
		cfg.ExpectedItems = 1000
	}
	if cfg.FPRate <= 0 || cfg.FPRate >= 1 {
		cfg.FPRate = 0.001
	}

	n := float64(cfg.ExpectedItems)
	p := cfg.FPRate

	// Optimal number of bits
	m := uint(math.Ceil(-(n * math.Log(p)) / (math.Log(2) * math.Log(2))))
	// Optimal number of hash functions
	k := uint(math.Ceil(float64(m) / n * math.Log(2)))

	if m == 0 {
		m = 64
	}
	if k == 0 {
		k = 1
	}

	// Round up to next uint64 boundary
	words := (m + 63) / 64

	return &BloomFilter{
		bits:    make([]uint64, words),
		numBits: m,
		numHash: k,
	}
}

// Add inserts a task-id subset into the filter. ids is assumed sorted
// ascending, the form search.Engine's canonicalize produces.
func (bf *BloomFilter) Add(ids []int) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	h1, h2 := bf.subsetHashes(ids)
	for i := uint(0); i < bf.numHash; i++ {
		pos := bf.nthHash(h1, h2, i)
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
	bf.count++
}

// Contains tests whether a task-id subset might have been added.
// False means definitely not present. True means probably present.
func (bf *BloomFilter) Contains(ids []int) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	h1, h2 := bf.subsetHashes(ids)
	for i := uint(0); i < bf.numHash; i++ {
		pos := bf.nthHash(h1, h2, i)
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false // Definitely not present
		}
	}
	return true // Probably present
}

// Count returns the number of subsets added.
func (bf *BloomFilter) Count() int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.count
}

// EstimatedFPRate returns the estimated current false positive rate
// based on the number of subsets added.
func (bf *BloomFilter) EstimatedFPRate() float64 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	m := float64(bf.numBits)
	k := float64(bf.numHash)
	n := float64(bf.count)

	// FP rate ≈ (1 - e^(-kn/m))^k
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// Config returns the filter's configuration parameters.
func (bf *BloomFilter) Config() (numBits, numHash uint) {
	return bf.numBits, bf.numHash
}

// Reset clears the filter. Engine does not currently call this — kept for
// parity with the positive/negative maps it fronts, which a future
// per-run filter reset (alongside a fresh store run) would need.
func (bf *BloomFilter) Reset() {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.count = 0
}

// subsetHashes computes two independent 32-bit hashes of a sorted task-id
// subset using SHA-256, feeding each id's big-endian 8-byte form into the
// digest in order; the fixed 8-byte width keeps distinct id lists from
// sharing a byte layout, and equal sorted slices always hash identically
// regardless of which caller built them.
// We use double-hashing (Kirsch-Mitzenmacker technique) to derive k hashes
// from just 2 base hashes: h_i(x) = h1(x) + i*h2(x).
func (bf *BloomFilter) subsetHashes(ids []int) (uint32, uint32) {
	h := sha256.New()
	var buf [8]byte
	for _, id := range ids {
		binary.BigEndian.PutUint64(buf[:], uint64(id))
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	h1 := binary.BigEndian.Uint32(sum[0:4])
	h2 := binary.BigEndian.Uint32(sum[4:8])
	return h1, h2
}

// nthHash derives the i-th hash position using double hashing.
func (bf *BloomFilter) nthHash(h1, h2 uint32, i uint) uint {
	return uint((uint64(h1) + uint64(i)*uint64(h2)) % uint64(bf.numBits))
}
