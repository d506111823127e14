package domain

import "sort"

// Platform is a named, ordered collection of processors plus the
// parameters used to generate them — the unit that platform.csv
// round-trips and that --load-platform reads back.
type Platform struct {
	Seed       int64
	SpeedMin   int64
	SpeedMax   int64
	Processors []*Processor
}

// SortedBySpeedDesc returns the platform's processors sorted by speed
// descending, ties broken by original (insertion) order — the ordering the
// simulator requires for speed-ordered assignment.
func (p Platform) SortedBySpeedDesc() []*Processor {
	out := make([]*Processor, len(p.Processors))
	copy(out, p.Processors)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Speed > out[j].Speed
	})
	return out
}

// MaxSpeed returns the fastest processor's speed, or 0 for an empty
// platform.
func (p Platform) MaxSpeed() int64 {
	var max int64
	for _, proc := range p.Processors {
		if proc.Speed > max {
			max = proc.Speed
		}
	}
	return max
}

// SpeedSum returns the sum of all processor speeds.
func (p Platform) SpeedSum() int64 {
	var sum int64
	for _, proc := range p.Processors {
		sum += proc.Speed
	}
	return sum
}
