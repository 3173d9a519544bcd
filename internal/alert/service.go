package alert

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"polypulse/internal/push/webhook"
	"polypulse/internal/snapshot"
	"polypulse/internal/store"
)

// Pusher is the outbound notification channel.
type Pusher interface {
	Send(ctx context.Context, title string, payload map[string]any) (*webhook.Response, error)
	Configured() bool
}

type Config struct {
	// MinDelta is the magnitude below which a score change is not worth a
	// push. The dashboard still carries the exact delta either way.
	MinDelta float64
	// Cooldown suppresses repeat pushes for the same market.
	Cooldown time.Duration
	// MaxPerCycle caps pushes emitted from a single refresh cycle.
	MaxPerCycle int
}

// Service turns per-cycle score deltas into "big mover" notifications:
// threshold, per-market cooldown, webhook push, sqlite audit row.
type Service struct {
	pusher Pusher
	store  *store.Store
	cfg    Config

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

func NewService(pusher Pusher, st *store.Store, cfg Config) *Service {
	if cfg.MinDelta <= 0 {
		cfg.MinDelta = 1
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 10 * time.Minute
	}
	if cfg.MaxPerCycle <= 0 {
		cfg.MaxPerCycle = 5
	}
	return &Service{
		pusher:   pusher,
		store:    st,
		cfg:      cfg,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// OnResult inspects one published cycle result. Markets are visited in
// rank order, so when the per-cycle cap bites, the highest-attention
// movers win.
func (s *Service) OnResult(ctx context.Context, res *snapshot.Result) {
	if res == nil {
		return
	}
	sent := 0
	for _, m := range res.Markets {
		if sent >= s.cfg.MaxPerCycle {
			return
		}
		d, ok := res.Deltas[m.ID]
		if !ok || !d.Known {
			continue
		}
		if math.Abs(d.Value) < s.cfg.MinDelta {
			continue
		}
		if !s.passCooldown(m.ID) {
			continue
		}
		s.emit(ctx, res, m.ID, m.Question, d.Value, m.Attention)
		sent++
	}
}

func (s *Service) passCooldown(id string) bool {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastSent[id]; ok && now.Sub(last) < s.cfg.Cooldown {
		return false
	}
	s.lastSent[id] = now
	return true
}

func (s *Service) emit(ctx context.Context, res *snapshot.Result, id, question string, delta, attention float64) {
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	title := fmt.Sprintf("%s attention %s %.1f", id, direction, math.Abs(delta))

	if s.store != nil {
		if err := s.store.InsertMoverAlert(store.MoverAlert{
			TS:        res.CapturedAt,
			MarketID:  id,
			Question:  question,
			Delta:     delta,
			Attention: attention,
		}); err != nil {
			log.Printf("insert mover alert error: %v", err)
		}
	}

	if s.pusher == nil || !s.pusher.Configured() {
		return
	}
	if _, err := s.pusher.Send(ctx, title, map[string]any{
		"market_id": id,
		"question":  question,
		"delta":     delta,
		"attention": attention,
		"ts":        res.CapturedAt,
	}); err != nil {
		log.Printf("mover push error: %v", err)
	}
}
