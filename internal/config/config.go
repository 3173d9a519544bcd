package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Market  MarketConfig  `yaml:"market"`
	Ranking RankingConfig `yaml:"ranking"`
	Alert   AlertConfig   `yaml:"alert"`
	Store   StoreConfig   `yaml:"store"`
	Summary SummaryConfig `yaml:"summary"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MarketConfig struct {
	// URL is the Gamma-style markets endpoint; BackupURL, when set, is
	// tried after the primary fails.
	URL             string `yaml:"url"`
	BackupURL       string `yaml:"backup_url"`
	TimeoutMs       int    `yaml:"timeout_ms"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	FetchTimeoutMs  int    `yaml:"fetch_timeout_ms"`
}

type RankingConfig struct {
	VolumeWeight      float64 `yaml:"volume_weight"`
	PriceChangeWeight float64 `yaml:"price_change_weight"`
	Limit             int     `yaml:"limit"`
}

type AlertConfig struct {
	Webhook     string  `yaml:"webhook"`
	Secret      string  `yaml:"secret"`
	TimeoutMs   int     `yaml:"timeout_ms"`
	MinDelta    float64 `yaml:"min_delta"`
	CooldownSec int     `yaml:"cooldown_sec"`
	MaxPerCycle int     `yaml:"max_per_cycle"`
}

type StoreConfig struct {
	Sqlite SqliteConfig `yaml:"sqlite"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type SummaryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ByAzure    bool   `yaml:"by_azure"`
	APIVersion string `yaml:"api_version"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Market: MarketConfig{
			URL:             "https://gamma-api.polymarket.com/markets?active=true&closed=false&limit=200",
			TimeoutMs:       5000,
			PollIntervalSec: 30,
			FetchTimeoutMs:  10000,
		},
		Ranking: RankingConfig{
			VolumeWeight:      1,
			PriceChangeWeight: 1,
			Limit:             50,
		},
		Alert: AlertConfig{
			TimeoutMs:   5000,
			MinDelta:    25,
			CooldownSec: 600,
			MaxPerCycle: 5,
		},
		Store: StoreConfig{
			Sqlite: SqliteConfig{Path: "data/app.db"},
		},
		Summary: SummaryConfig{
			Enabled:   false,
			Model:     "gpt-4.1-mini",
			TimeoutMs: 10000,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("GAMMA_URL"); v != "" {
		cfg.Market.URL = v
	}
	if v := os.Getenv("ALERT_WEBHOOK"); v != "" {
		cfg.Alert.Webhook = v
	}
	if v := os.Getenv("ALERT_SECRET"); v != "" {
		cfg.Alert.Secret = v
	}
	return nil
}
