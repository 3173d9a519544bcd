package scoring

import (
	"testing"

	"polypulse/internal/market"

	"github.com/stretchr/testify/require"
)

func TestRankSortsDescending(t *testing.T) {
	in := []market.Market{
		{ID: "low", Attention: 1},
		{ID: "high", Attention: 100},
		{ID: "mid", Attention: 50},
	}
	out := Rank(in, 10)
	require.Equal(t, []string{"high", "mid", "low"}, ids(out))
	for i := 1; i < len(out); i++ {
		require.GreaterOrEqual(t, out[i-1].Attention, out[i].Attention)
	}
}

func TestRankIsStableForEqualScores(t *testing.T) {
	in := []market.Market{
		{ID: "a", Attention: 5},
		{ID: "b", Attention: 5},
		{ID: "c", Attention: 9},
		{ID: "d", Attention: 5},
	}
	out := Rank(in, 10)
	require.Equal(t, []string{"c", "a", "b", "d"}, ids(out))
}

func TestRankTruncatesToLimit(t *testing.T) {
	in := []market.Market{
		{ID: "a", Attention: 3},
		{ID: "b", Attention: 2},
		{ID: "c", Attention: 1},
	}
	require.Len(t, Rank(in, 2), 2)
	require.Len(t, Rank(in, 3), 3)
	require.Len(t, Rank(in, 50), 3)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []market.Market{
		{ID: "low", Attention: 1},
		{ID: "high", Attention: 100},
	}
	_ = Rank(in, 2)
	require.Equal(t, "low", in[0].ID)
}

func ids(markets []market.Market) []string {
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = m.ID
	}
	return out
}
