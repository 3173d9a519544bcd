package scoring

import (
	"math"

	"polypulse/internal/market"
)

// Weights tune how much trading volume and price movement contribute to
// the attention score. Zero value means "use defaults".
type Weights struct {
	Volume      float64 `json:"volume_weight"`
	PriceChange float64 `json:"price_change_weight"`
}

// Sanitize coerces out-of-domain weights to the documented default of 1.
func (w Weights) Sanitize() Weights {
	if w.Volume <= 0 || math.IsNaN(w.Volume) || math.IsInf(w.Volume, 0) {
		w.Volume = 1
	}
	if w.PriceChange <= 0 || math.IsNaN(w.PriceChange) || math.IsInf(w.PriceChange, 0) {
		w.PriceChange = 1
	}
	return w
}

// Attention is the ranking metric: weighted volume times weighted price
// movement magnitude. Pure function of its inputs; zero volume or zero
// movement yields zero, which is a legitimate bottom-of-the-board score.
func Attention(volume, priceChange float64, w Weights) float64 {
	return (volume * w.Volume) * (math.Abs(priceChange) * w.PriceChange)
}

// Score returns a copy of markets with Attention filled in. Input order
// is preserved and the input slice is not mutated.
func Score(markets []market.Market, w Weights) []market.Market {
	w = w.Sanitize()
	out := make([]market.Market, len(markets))
	for i, m := range markets {
		m.Attention = Attention(m.Volume, m.PriceChange, w)
		out[i] = m
	}
	return out
}
