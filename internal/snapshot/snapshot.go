package snapshot

import (
	"sync"

	"polypulse/internal/market"
)

// Delta is the change in a market's attention score since the previous
// cycle. Known is false for markets with no prior signal; that state is
// distinct from a delta of 0.
type Delta struct {
	Value float64
	Known bool
}

// Result is one refresh cycle's published output: the ranked markets, the
// per-market deltas for every market scored this cycle, and capture
// metadata. Consumers treat it as immutable.
type Result struct {
	Markets    []market.Market  `json:"markets"`
	Deltas     map[string]Delta `json:"-"`
	CapturedAt int64            `json:"captured_at"`
	Source     string           `json:"source"`
}

// Store retains the score map of exactly one prior cycle. It is replaced,
// never merged, on each Apply.
type Store struct {
	mu   sync.Mutex
	prev map[string]float64
}

func NewStore() *Store {
	return &Store{}
}

// Apply computes deltas for every scored market against the prior cycle,
// then replaces the prior score map with this cycle's scores. Duplicate
// ids within one cycle keep the last score seen (a data-quality condition,
// not a failure).
func (s *Store) Apply(scored []market.Market) map[string]Delta {
	next := make(map[string]float64, len(scored))
	deltas := make(map[string]Delta, len(scored))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range scored {
		next[m.ID] = m.Attention
		if prev, ok := s.prev[m.ID]; ok {
			deltas[m.ID] = Delta{Value: m.Attention - prev, Known: true}
		} else {
			deltas[m.ID] = Delta{}
		}
	}
	s.prev = next
	return deltas
}

// Reset drops the prior score map, so the next Apply reports every market
// as having no prior signal.
func (s *Store) Reset() {
	s.mu.Lock()
	s.prev = nil
	s.mu.Unlock()
}
