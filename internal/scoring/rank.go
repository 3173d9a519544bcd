package scoring

import (
	"sort"

	"polypulse/internal/market"
)

// Rank returns the top-limit markets ordered by attention descending.
// The sort is stable so equal scores keep their input order. limit must
// be positive; callers clamp before calling.
func Rank(markets []market.Market, limit int) []market.Market {
	ranked := make([]market.Market, len(markets))
	copy(ranked, markets)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Attention > ranked[j].Attention
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
