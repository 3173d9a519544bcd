package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GammaProvider fetches the full market list from a Polymarket Gamma style
// endpoint: one GET returning a JSON array of untrusted market objects.
type GammaProvider struct {
	url    string
	name   string
	client *http.Client
}

func NewGammaProvider(url string, timeout time.Duration) *GammaProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GammaProvider{
		url:  url,
		name: "gamma",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *GammaProvider) FetchMarkets(ctx context.Context) ([]RawMarket, string, error) {
	if p.url == "" {
		return nil, p.name, fmt.Errorf("provider url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, p.name, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		raws, err := p.doOnce(req)
		if err == nil {
			return raws, p.name, nil
		}
		if !shouldRetry(err) || attempt == 2 {
			return nil, p.name, err
		}
		lastErr = err
		time.Sleep(150 * time.Millisecond)
	}
	return nil, p.name, fmt.Errorf("request markets: %w", lastErr)
}

func (p *GammaProvider) doOnce(req *http.Request) ([]RawMarket, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raws []RawMarket
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	return raws, nil
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "reset by peer") {
		return true
	}
	return false
}
