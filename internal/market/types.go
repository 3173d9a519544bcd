package market

import "context"

// RawMarket is one upstream record exactly as decoded from the provider.
// No field is guaranteed present or well-typed.
type RawMarket map[string]any

// Market is the canonical form of one prediction market after normalization.
// All numeric fields are finite and non-negative.
type Market struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
	// YesPrice/NoPrice are meaningful only when HasPrices is true; both
	// zero with HasPrices=false means "no probability data", not 0%.
	YesPrice  float64 `json:"yes_price"`
	NoPrice   float64 `json:"no_price"`
	HasPrices bool    `json:"has_prices"`
	Volume    float64 `json:"volume"`
	// PriceChange is the magnitude used for scoring; SignedChange keeps
	// the direction for display.
	PriceChange  float64 `json:"price_change"`
	SignedChange float64 `json:"signed_change"`
	Icon         string  `json:"icon,omitempty"`
	Attention    float64 `json:"attention"`
}

type Provider interface {
	FetchMarkets(ctx context.Context) ([]RawMarket, string, error)
}
