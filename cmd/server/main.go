package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"polypulse/internal/alert"
	"polypulse/internal/api"
	"polypulse/internal/config"
	"polypulse/internal/market"
	"polypulse/internal/poller"
	"polypulse/internal/push/webhook"
	"polypulse/internal/scoring"
	"polypulse/internal/snapshot"
	"polypulse/internal/store"
	"polypulse/internal/summary"

	"github.com/cloudwego/hertz/pkg/app/server"
)

func main() {
	cfg, err := config.Load("configs/app.yaml")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))

	st, err := store.Open(cfg.Store.Sqlite.Path)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("store close error: %v", err)
		}
	}()

	push := webhook.NewClient(
		cfg.Alert.Webhook,
		cfg.Alert.Secret,
		time.Duration(cfg.Alert.TimeoutMs)*time.Millisecond,
	)

	alertSvc := alert.NewService(push, st, alert.Config{
		MinDelta:    cfg.Alert.MinDelta,
		Cooldown:    time.Duration(cfg.Alert.CooldownSec) * time.Second,
		MaxPerCycle: cfg.Alert.MaxPerCycle,
	})

	providerTimeout := time.Duration(cfg.Market.TimeoutMs) * time.Millisecond
	providers := []market.Provider{market.NewGammaProvider(cfg.Market.URL, providerTimeout)}
	if cfg.Market.BackupURL != "" {
		providers = append(providers, market.NewGammaProvider(cfg.Market.BackupURL, providerTimeout))
	}
	provider := market.NewMultiProvider(providers...)

	p := poller.New(
		provider,
		snapshot.NewStore(),
		poller.Tuning{
			Weights: scoring.Weights{
				Volume:      cfg.Ranking.VolumeWeight,
				PriceChange: cfg.Ranking.PriceChangeWeight,
			},
			Limit:    cfg.Ranking.Limit,
			Interval: time.Duration(cfg.Market.PollIntervalSec) * time.Second,
		},
		alertSvc,
		time.Duration(cfg.Market.FetchTimeoutMs)*time.Millisecond,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	agent := summary.New(summary.Config{
		Enabled:    cfg.Summary.Enabled,
		Model:      cfg.Summary.Model,
		APIKey:     cfg.Summary.APIKey,
		BaseURL:    cfg.Summary.BaseURL,
		ByAzure:    cfg.Summary.ByAzure,
		APIVersion: cfg.Summary.APIVersion,
		TimeoutMs:  cfg.Summary.TimeoutMs,
	})

	api.RegisterRoutes(h, p, st, push, agent)

	log.Printf("polling %s every %ds", cfg.Market.URL, cfg.Market.PollIntervalSec)
	log.Printf("server starting on %s (log.level=%s)", addr, cfg.Log.Level)
	if err := h.Run(); err != nil {
		log.Fatalf("server run error: %v", err)
	}
}
