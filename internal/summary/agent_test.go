package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledAgentFallsBack(t *testing.T) {
	a := New(Config{Enabled: false})
	require.False(t, a.Enabled())

	d, err := a.Evaluate(context.Background(), Input{})
	require.NoError(t, err)
	require.NotEmpty(t, d.Headline)
	require.Equal(t, "quiet", d.Tone)
	require.NotNil(t, d.Movers)
}

func TestParseDigestPlainJSON(t *testing.T) {
	d, err := parseDigest(`{"headline":"Big day","tone":"volatile","movers":[{"market_id":"a","note":"doubled"}]}`)
	require.NoError(t, err)
	require.Equal(t, "Big day", d.Headline)
	require.Len(t, d.Movers, 1)
}

func TestParseDigestExtractsEmbeddedJSON(t *testing.T) {
	text := "Sure, here is the summary:\n{\"headline\":\"Quiet day\",\"tone\":\"quiet\",\"movers\":[]}\nHope that helps!"
	d, err := parseDigest(text)
	require.NoError(t, err)
	require.Equal(t, "Quiet day", d.Headline)
}

func TestParseDigestNoJSON(t *testing.T) {
	_, err := parseDigest("nothing useful here")
	require.Error(t, err)
}

func TestSanitizeDigest(t *testing.T) {
	d := sanitizeDigest(Digest{Tone: "screaming"})
	require.Equal(t, "quiet", d.Tone)
	require.NotEmpty(t, d.Headline)
	require.NotNil(t, d.Movers)

	d = sanitizeDigest(Digest{Headline: "h", Tone: "active", Movers: []MoverNote{{MarketID: "a"}}})
	require.Equal(t, "active", d.Tone)
	require.Len(t, d.Movers, 1)
}

func TestExtractFirstJSONObjectNested(t *testing.T) {
	require.Equal(t, `{"a":{"b":1}}`, extractFirstJSONObject(`junk {"a":{"b":1}} trailing`))
	require.Equal(t, "", extractFirstJSONObject("no braces"))
	require.Equal(t, "", extractFirstJSONObject("{unclosed"))
}
