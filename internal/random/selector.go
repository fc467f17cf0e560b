// Package random picks theme ids from a pool under the configured
// selection policy.
package random

import (
	"math/rand"
	"time"
)

// Selector chooses theme ids. In cycle mode it keeps a rotation queue so
// every pool member is returned once per full pass before any repeat; in
// avoid-repeat mode it excludes the previous pick when possible.
type Selector struct {
	rng   *rand.Rand
	queue []string
}

// NewSelector returns a Selector backed by the given source. A nil rng
// falls back to a time-seeded one.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// EffectivePool intersects the configured pool with the available theme
// ids, preserving pool order. An empty pool intersects with nothing, so
// selection stays inert until at least one id is configured.
func EffectivePool(available []string, pool []string) []string {
	if len(pool) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(available))
	for _, id := range available {
		known[id] = struct{}{}
	}
	out := make([]string, 0, len(pool))
	for _, id := range pool {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Pick returns the next theme id from candidates, or empty when there are
// none. Cycle mode takes precedence over avoid-repeat when both are set.
func (s *Selector) Pick(candidates []string, cycle, avoidRepeat bool, last string) string {
	if len(candidates) == 0 {
		return ""
	}
	if cycle {
		return s.nextInCycle(candidates)
	}
	if avoidRepeat && last != "" {
		filtered := make([]string, 0, len(candidates))
		for _, id := range candidates {
			if id != last {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// nextInCycle pops the front of the rotation queue, refilling it with a
// fresh shuffled permutation when exhausted. Queue entries that are no
// longer candidates are dropped on the way out, so pool edits take effect
// without restarting the cycle.
func (s *Selector) nextInCycle(candidates []string) string {
	valid := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		valid[id] = struct{}{}
	}
	for {
		if len(s.queue) == 0 {
			s.queue = append([]string(nil), candidates...)
			s.rng.Shuffle(len(s.queue), func(i, j int) {
				s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
			})
		}
		id := s.queue[0]
		s.queue = s.queue[1:]
		if _, ok := valid[id]; ok {
			return id
		}
	}
}

// QueueLen reports how many ids remain in the current rotation pass.
func (s *Selector) QueueLen() int {
	return len(s.queue)
}
