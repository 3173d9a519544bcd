package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

type Config struct {
	Enabled    bool   `yaml:"enabled"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ByAzure    bool   `yaml:"by_azure"`
	APIVersion string `yaml:"api_version"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// Digest is a short natural-language readout of what moved on the board.
type Digest struct {
	Headline string      `json:"headline"`
	Tone     string      `json:"tone"`
	Movers   []MoverNote `json:"movers"`
}

type MoverNote struct {
	MarketID string `json:"market_id"`
	Note     string `json:"note"`
}

// Input carries the top of the latest ranked result plus its deltas.
type Input struct {
	CapturedAt int64 `json:"captured_at"`
	Markets    any   `json:"markets"`
}

type Agent struct {
	enabled        bool
	model          *openai.ChatModel
	modelName      string
	disabledReason string
}

func New(cfg Config) *Agent {
	if !cfg.Enabled {
		return &Agent{enabled: false, disabledReason: "disabled by config"}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("OPENAI_MODEL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.APIKey == "" || cfg.Model == "" {
		log.Printf("summary agent disabled: missing api key or model")
		return &Agent{enabled: false, disabledReason: "api_key or model missing"}
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	model, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		ByAzure:    cfg.ByAzure,
		APIVersion: cfg.APIVersion,
		Timeout:    timeout,
	})
	if err != nil {
		log.Printf("summary agent init error: %v", err)
		return &Agent{enabled: false, disabledReason: "init failed"}
	}

	return &Agent{enabled: true, model: model, modelName: cfg.Model}
}

func (a *Agent) Enabled() bool {
	return a != nil && a.enabled
}

func (a *Agent) Evaluate(ctx context.Context, in Input) (Digest, error) {
	if !a.Enabled() || a.model == nil {
		return FallbackDigest(in), nil
	}

	payload, _ := json.Marshal(in)

	system := `You summarize a prediction-market attention board. Output ONLY valid JSON.
Must include keys: headline (one sentence), tone (one of "quiet","active","volatile"), movers (array of {market_id,note}).
Mention only markets from the input. No extra text. If nothing moved, say so in the headline and keep movers empty.`

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(fmt.Sprintf("Input: %s", string(payload))),
	}

	resp, err := a.model.Generate(ctx, messages)
	if err != nil {
		logLLMError(err)
		return FallbackDigest(in), err
	}
	text := strings.TrimSpace(resp.Content)

	digest, err := parseDigest(text)
	if err != nil {
		return FallbackDigest(in), err
	}
	return sanitizeDigest(digest), nil
}

func FallbackDigest(in Input) Digest {
	return Digest{
		Headline: "Attention board refreshed; no narrative summary available.",
		Tone:     "quiet",
		Movers:   []MoverNote{},
	}
}

func parseDigest(text string) (Digest, error) {
	var out Digest
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}
	jsonStr := extractFirstJSONObject(text)
	if jsonStr == "" {
		return Digest{}, fmt.Errorf("no json object found")
	}
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return Digest{}, fmt.Errorf("parse digest: %w", err)
	}
	return out, nil
}

func extractFirstJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func sanitizeDigest(d Digest) Digest {
	if d.Headline == "" {
		d.Headline = "Attention board refreshed."
	}
	switch d.Tone {
	case "quiet", "active", "volatile":
	default:
		d.Tone = "quiet"
	}
	if d.Movers == nil {
		d.Movers = []MoverNote{}
	}
	return d
}

func logLLMError(err error) {
	apiErr := &openai.APIError{}
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		log.Printf("summary api error: status=%d message=%s", apiErr.HTTPStatusCode, msg)
		return
	}
	log.Printf("summary agent error: %v", err)
}
