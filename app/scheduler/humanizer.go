// Package scheduler runs campaign delivery: per-campaign executors, the
// supervisor that admits and recovers them, and the pacing that makes bulk
// sends look like a person typing.
package scheduler

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

// Humanizer decides the dispatch order of a campaign and the pause between
// consecutive sends. Both are drawn once per decision; the order in particular
// is computed a single time and persisted, never re-drawn on resume.
type Humanizer interface {
	Order(total int, randomize bool) []int64
	NextDelay(minMinutes, maxMinutes int) time.Duration
}

// RandHumanizer implements Humanizer with a seeded PRNG
type RandHumanizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHumanizer creates a humanizer with an explicit seed
func NewHumanizer(seed int64) *RandHumanizer {
	return &RandHumanizer{rng: rand.New(rand.NewSource(seed))}
}

// NewTaggedHumanizer creates a humanizer seeded from the clock and a tag,
// typically the campaign UUID, so two campaigns admitted in the same
// nanosecond still shuffle differently
func NewTaggedHumanizer(tag string) *RandHumanizer {
	seed := time.Now().UnixNano() ^ int64(fnv64a(tag))
	return NewHumanizer(seed)
}

// Order returns the recipient positions in dispatch order. Without
// randomization the order is ascending by position.
func (h *RandHumanizer) Order(total int, randomize bool) []int64 {
	order := make([]int64, total)
	for i := range order {
		order[i] = int64(i)
	}

	if randomize && total > 1 {
		h.mu.Lock()
		h.rng.Shuffle(total, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		h.mu.Unlock()
	}

	return order
}

// NextDelay draws a uniform delay between the campaign's bounds, at second
// granularity so repeated delays rarely repeat exactly
func (h *RandHumanizer) NextDelay(minMinutes, maxMinutes int) time.Duration {
	if maxMinutes <= minMinutes {
		return time.Duration(minMinutes) * time.Minute
	}

	minSeconds := int64(minMinutes) * 60
	maxSeconds := int64(maxMinutes) * 60

	h.mu.Lock()
	seconds := minSeconds + h.rng.Int63n(maxSeconds-minSeconds+1)
	h.mu.Unlock()

	return time.Duration(seconds) * time.Second
}

func fnv64a(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
