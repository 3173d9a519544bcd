package market

import (
	"context"
	"fmt"
)

// MultiProvider tries each provider in order and returns the first
// non-empty result. Used to fall back to a mirror endpoint when the
// primary is down.
type MultiProvider struct {
	providers []Provider
}

func NewMultiProvider(providers ...Provider) *MultiProvider {
	return &MultiProvider{providers: providers}
}

func (m *MultiProvider) FetchMarkets(ctx context.Context) ([]RawMarket, string, error) {
	if len(m.providers) == 0 {
		return nil, "", fmt.Errorf("no market providers configured")
	}
	var lastErr error
	for _, p := range m.providers {
		raws, source, err := p.FetchMarkets(ctx)
		if err == nil && len(raws) > 0 {
			return raws, source, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all providers returned empty results")
	}
	return nil, "", lastErr
}
