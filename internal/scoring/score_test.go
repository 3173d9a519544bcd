package scoring

import (
	"testing"

	"polypulse/internal/market"

	"github.com/stretchr/testify/require"
)

func TestAttentionScenario(t *testing.T) {
	// volume 1000, |change| 0.1, default weights -> 100.
	got := Attention(1000, -0.1, Weights{}.Sanitize())
	require.Equal(t, 100.0, got)
}

func TestAttentionWeightsScaleLinearly(t *testing.T) {
	cases := []struct {
		v, p, wv, wp float64
	}{
		{1000, 0.1, 2, 1},
		{1000, 0.1, 1, 3},
		{250, 0.5, 2.5, 0.75},
		{0, 0.5, 2, 2},
		{100, 0, 2, 2},
	}
	for _, c := range cases {
		base := Attention(c.v, c.p, Weights{Volume: 1, PriceChange: 1})
		weighted := Attention(c.v, c.p, Weights{Volume: c.wv, PriceChange: c.wp})
		require.InDelta(t, base*c.wv*c.wp, weighted, 1e-9)
	}
}

func TestAttentionZeroInputsYieldZero(t *testing.T) {
	require.Equal(t, 0.0, Attention(0, 0.5, Weights{Volume: 1, PriceChange: 1}))
	require.Equal(t, 0.0, Attention(1000, 0, Weights{Volume: 1, PriceChange: 1}))
}

func TestWeightsSanitize(t *testing.T) {
	w := Weights{Volume: -1, PriceChange: 0}.Sanitize()
	require.Equal(t, 1.0, w.Volume)
	require.Equal(t, 1.0, w.PriceChange)

	w = Weights{Volume: 2.5, PriceChange: 0.5}.Sanitize()
	require.Equal(t, 2.5, w.Volume)
	require.Equal(t, 0.5, w.PriceChange)
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	in := []market.Market{{ID: "a", Volume: 10, PriceChange: 0.5}}
	out := Score(in, Weights{})
	require.Equal(t, 0.0, in[0].Attention)
	require.Equal(t, 5.0, out[0].Attention)
}

func TestScoreIsDeterministic(t *testing.T) {
	in := []market.Market{
		{ID: "a", Volume: 10, PriceChange: 0.5},
		{ID: "b", Volume: 300, PriceChange: 0.01},
	}
	first := Score(in, Weights{})
	second := Score(in, Weights{})
	require.Equal(t, first, second)
}
