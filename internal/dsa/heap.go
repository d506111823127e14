// Package dsa implements the small generic data structures the scheduler
// and search engine lean on: a binary min-heap for the EDF ready queue and
// a Bloom filter for fast subset-decision membership pre-checks.
package dsa

import "github.com/unccx/edfgen/internal/domain"

// ─── EDF Ready-Queue (Min-Heap) ─────────────────────────────────────────────
//
// Operations:
//   Push: O(log n) — sift up
//   Pop:  O(log n) — sift down (extract-min)
//   Peek: O(1)
//   Len:  O(1)
//
// Ordering is exactly domain.Job.Less: earliest absolute deadline first,
// ties broken by ascending task id. The scheduler rebuilds this heap from
// scratch every tick (spec: priority_tick), so no decrease-key support is
// needed — a plain binary heap is sufficient and keeps the implementation
// small.

// JobHeap is a binary min-heap of job pointers ordered by domain.Job.Less.
// Not safe for concurrent use — each Scheduler owns a private JobHeap.
type JobHeap struct {
	items []*domain.Job
}

// NewJobHeap returns an empty ready-queue.
func NewJobHeap() *JobHeap {
	return &JobHeap{}
}

// Reset empties the heap in place, reusing its backing array.
func (h *JobHeap) Reset() {
	h.items = h.items[:0]
}

// Push adds a job to the heap. O(log n).
func (h *JobHeap) Push(job *domain.Job) {
	h.items = append(h.items, job)
	h.siftUp(len(h.items) - 1)
}

// Pop removes and returns the highest-priority (earliest-deadline) job.
// O(log n). Returns nil if the heap is empty.
func (h *JobHeap) Pop() *domain.Job {
	if len(h.items) == 0 {
		return nil
	}
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items[last] = nil
	h.items = h.items[:last]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return top
}

// Peek returns the highest-priority job without removing it, or nil.
func (h *JobHeap) Peek() *domain.Job {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// Len returns the number of jobs currently in the heap.
func (h *JobHeap) Len() int { return len(h.items) }

func (h *JobHeap) less(i, j int) bool {
	return h.items[i].Less(h.items[j])
}

func (h *JobHeap) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if h.less(idx, parent) {
			h.items[idx], h.items[parent] = h.items[parent], h.items[idx]
			idx = parent
		} else {
			break
		}
	}
}

func (h *JobHeap) siftDown(idx int) {
	n := len(h.items)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2

		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == idx {
			break
		}
		h.items[idx], h.items[smallest] = h.items[smallest], h.items[idx]
		idx = smallest
	}
}
