package api

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"polypulse/internal/market"
	"polypulse/internal/poller"
	"polypulse/internal/push/webhook"
	"polypulse/internal/scoring"
	"polypulse/internal/snapshot"
	"polypulse/internal/store"
	"polypulse/internal/summary"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
)

// RankedItem is one market as served to the dashboard: the canonical
// record plus its delta-vs-previous, with "unknown" kept distinct from 0.
type RankedItem struct {
	market.Market
	Delta      *float64 `json:"delta"`
	DeltaKnown bool     `json:"delta_known"`
}

func RegisterRoutes(h *server.Hertz, p *poller.Poller, st *store.Store, push *webhook.Client, agent *summary.Agent) {
	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(200, map[string]bool{"ok": true})
	})

	h.GET("/api/v1/dashboard", func(_ context.Context, c *app.RequestContext) {
		res, lastErr := p.Latest()
		if res == nil {
			status := http.StatusServiceUnavailable
			msg := "no snapshot yet"
			if lastErr != nil {
				status = http.StatusBadGateway
				msg = lastErr.Error()
			}
			c.JSON(status, map[string]any{
				"ok":    false,
				"error": msg,
			})
			return
		}
		var warnings []string
		if lastErr != nil {
			warnings = append(warnings, "last refresh failed, showing previous snapshot: "+lastErr.Error())
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":          true,
			"stale":       lastErr != nil,
			"source":      res.Source,
			"captured_at": res.CapturedAt,
			"warnings":    warnings,
			"markets":     rankedItems(res),
		})
	})

	h.GET("/api/v1/rankings", func(_ context.Context, c *app.RequestContext) {
		canonical := p.Canonical()
		if len(canonical) == 0 {
			_, lastErr := p.Latest()
			status := http.StatusServiceUnavailable
			msg := "no snapshot yet"
			if lastErr != nil {
				status = http.StatusBadGateway
				msg = lastErr.Error()
			}
			c.JSON(status, map[string]any{
				"ok":    false,
				"error": msg,
			})
			return
		}

		weights := scoring.Weights{
			Volume:      parseWeight(string(c.Query("volume_weight"))),
			PriceChange: parseWeight(string(c.Query("price_change_weight"))),
		}
		limit := parseLimit(string(c.Query("limit")))

		ranked := scoring.Rank(scoring.Score(canonical, weights), limit)
		c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"weights": weights,
			"limit":   limit,
			"markets": ranked,
		})
	})

	h.POST("/api/v1/tuning", func(_ context.Context, c *app.RequestContext) {
		var req struct {
			VolumeWeight      float64 `json:"volume_weight"`
			PriceChangeWeight float64 `json:"price_change_weight"`
			Limit             int     `json:"limit"`
			IntervalSec       int     `json:"interval_sec"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid json body",
			})
			return
		}
		p.SetTuning(poller.Tuning{
			Weights: scoring.Weights{
				Volume:      req.VolumeWeight,
				PriceChange: req.PriceChangeWeight,
			},
			Limit:    req.Limit,
			Interval: time.Duration(req.IntervalSec) * time.Second,
		})
		tuning := p.Tuning()
		c.JSON(http.StatusOK, map[string]any{
			"ok":           true,
			"weights":      tuning.Weights,
			"limit":        tuning.Limit,
			"interval_sec": int(tuning.Interval / time.Second),
		})
	})

	h.GET("/api/v1/movers", func(_ context.Context, c *app.RequestContext) {
		if st == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "store not configured",
			})
			return
		}
		limit := parseLimit(string(c.Query("limit")))
		offset := parseOffset(string(c.Query("offset")))
		items, err := st.QueryMoverAlerts(limit, offset)
		if err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":    true,
			"items": items,
		})
	})

	h.POST("/api/v1/subscribe", func(_ context.Context, c *app.RequestContext) {
		if st == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "store not configured",
			})
			return
		}
		var req struct {
			Email string `json:"email"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid json body",
			})
			return
		}
		if !validEmail(req.Email) {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid email",
			})
			return
		}
		if err := st.InsertSubscriber(req.Email); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				c.JSON(http.StatusOK, map[string]any{
					"ok":     true,
					"status": "already_subscribed",
				})
				return
			}
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":     true,
			"status": "subscribed",
		})
	})

	h.GET("/api/v1/summary", func(_ context.Context, c *app.RequestContext) {
		res, lastErr := p.Latest()
		if res == nil {
			status := http.StatusServiceUnavailable
			msg := "no snapshot yet"
			if lastErr != nil {
				status = http.StatusBadGateway
				msg = lastErr.Error()
			}
			c.JSON(status, map[string]any{
				"ok":    false,
				"error": msg,
			})
			return
		}

		input := summary.Input{
			CapturedAt: res.CapturedAt,
			Markets:    digestMarkets(res, 10),
		}
		digest := summary.FallbackDigest(input)
		mode := "fallback"
		if agent.Enabled() {
			if d, err := agent.Evaluate(context.Background(), input); err == nil {
				digest = d
				mode = "llm"
			} else {
				log.Printf("summary eval error: %v", err)
			}
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":          true,
			"mode":        mode,
			"captured_at": res.CapturedAt,
			"digest":      digest,
		})
	})

	h.POST("/api/v1/test/push", func(_ context.Context, c *app.RequestContext) {
		if !push.Configured() {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "webhook not configured",
			})
			return
		}
		var req struct {
			Title string `json:"title"`
			Text  string `json:"text"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid json body",
			})
			return
		}
		resp, err := push.Send(context.Background(), req.Title, map[string]any{"text": req.Text})
		if err != nil {
			status := 0
			if resp != nil {
				status = resp.Status
			}
			c.JSON(http.StatusBadGateway, map[string]any{
				"ok":             false,
				"error":          err.Error(),
				"webhook_status": status,
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":             true,
			"webhook_status": resp.Status,
		})
	})
}

func rankedItems(res *snapshot.Result) []RankedItem {
	items := make([]RankedItem, len(res.Markets))
	for i, m := range res.Markets {
		item := RankedItem{Market: m}
		if d, ok := res.Deltas[m.ID]; ok && d.Known {
			v := d.Value
			item.Delta = &v
			item.DeltaKnown = true
		}
		items[i] = item
	}
	return items
}

func digestMarkets(res *snapshot.Result, top int) []map[string]any {
	if top > len(res.Markets) {
		top = len(res.Markets)
	}
	out := make([]map[string]any, 0, top)
	for _, m := range res.Markets[:top] {
		entry := map[string]any{
			"market_id": m.ID,
			"question":  m.Question,
			"attention": m.Attention,
			"change":    m.SignedChange,
		}
		if d, ok := res.Deltas[m.ID]; ok && d.Known {
			entry["delta"] = d.Value
		}
		out = append(out, entry)
	}
	return out
}

// parseWeight coerces a caller-supplied weight to the default of 1 when
// missing, non-numeric, or out of domain.
func parseWeight(raw string) float64 {
	if raw == "" {
		return 1
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}

// parseLimit coerces to the default of 50, capped at 500.
func parseLimit(raw string) int {
	if raw == "" {
		return 50
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 50
	}
	if v > 500 {
		return 500
	}
	return v
}

func parseOffset(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}
