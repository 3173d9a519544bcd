package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"polypulse/internal/market"
	"polypulse/internal/scoring"
	"polypulse/internal/snapshot"
)

// Tuning is the runtime-adjustable part of the refresh loop. Changes take
// effect on the next cycle.
type Tuning struct {
	Weights  scoring.Weights
	Limit    int
	Interval time.Duration
}

func (t Tuning) sanitize() Tuning {
	t.Weights = t.Weights.Sanitize()
	if t.Limit <= 0 {
		t.Limit = 50
	}
	if t.Interval <= 0 {
		t.Interval = 30 * time.Second
	}
	return t
}

// MoverSink receives each successful cycle's result, after it has been
// published. Used for the big-mover alert channel.
type MoverSink interface {
	OnResult(ctx context.Context, res *snapshot.Result)
}

// Poller owns the fetch -> normalize -> score -> rank -> delta pipeline.
// It is the only writer of the snapshot store and of the published result;
// consumers read through Latest and Canonical.
type Poller struct {
	provider     market.Provider
	store        *snapshot.Store
	sink         MoverSink
	fetchTimeout time.Duration

	mu        sync.Mutex
	tuning    Tuning
	latest    *snapshot.Result
	canonical []market.Market
	lastErr   error
}

func New(provider market.Provider, store *snapshot.Store, tuning Tuning, sink MoverSink, fetchTimeout time.Duration) *Poller {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Poller{
		provider:     provider,
		store:        store,
		sink:         sink,
		fetchTimeout: fetchTimeout,
		tuning:       tuning.sanitize(),
	}
}

// Run drives the refresh loop until ctx is cancelled. At most one fetch is
// in flight at any time: the next tick is armed only after the current
// cycle finishes, success or failure. A failed cycle never touches the
// published result and never stops the loop.
func (p *Poller) Run(ctx context.Context) {
	for {
		if err := p.RunCycle(ctx); err != nil && ctx.Err() == nil {
			log.Printf("poll cycle error: %v", err)
		}

		timer := time.NewTimer(p.Tuning().Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunCycle executes exactly one fetch-and-publish cycle.
func (p *Poller) RunCycle(ctx context.Context) error {
	tuning := p.Tuning()

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	raws, source, err := p.provider.FetchMarkets(fetchCtx)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return err
	}
	// A fetch that outlives its consumer must not mutate anything.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	canonical := market.NormalizeAll(raws)
	scored := scoring.Score(canonical, tuning.Weights)
	ranked := scoring.Rank(scored, tuning.Limit)
	deltas := p.store.Apply(ranked)

	res := &snapshot.Result{
		Markets:    ranked,
		Deltas:     deltas,
		CapturedAt: time.Now().Unix(),
		Source:     source,
	}

	p.mu.Lock()
	p.latest = res
	p.canonical = canonical
	p.lastErr = nil
	p.mu.Unlock()

	if p.sink != nil {
		p.sink.OnResult(ctx, res)
	}
	return nil
}

// Latest returns the most recently published result (nil before the first
// success) and the error from the most recent failed cycle, if the last
// cycle failed.
func (p *Poller) Latest() (*snapshot.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.lastErr
}

// Canonical returns the latest full normalized, unscored market set, for
// callers that re-score with their own weights.
func (p *Poller) Canonical() []market.Market {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]market.Market, len(p.canonical))
	copy(out, p.canonical)
	return out
}

func (p *Poller) Tuning() Tuning {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tuning
}

// SetTuning swaps the weights, limit, and interval used from the next
// cycle onward.
func (p *Poller) SetTuning(t Tuning) {
	t = t.sanitize()
	p.mu.Lock()
	p.tuning = t
	p.mu.Unlock()
}
