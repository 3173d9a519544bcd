package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGammaProviderFetchesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a","volume24hr":"1000","oneDayPriceChange":-0.1},
			{"id":"b","volumeNum":42}
		]`))
	}))
	defer srv.Close()

	p := NewGammaProvider(srv.URL, time.Second)
	raws, source, err := p.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Equal(t, "gamma", source)
	require.Len(t, raws, 2)

	m := Normalize(raws[0])
	require.Equal(t, 1000.0, m.Volume)
	require.Equal(t, 0.1, m.PriceChange)
	require.Equal(t, -0.1, m.SignedChange)
}

func TestGammaProviderNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewGammaProvider(srv.URL, time.Second)
	_, _, err := p.FetchMarkets(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestGammaProviderMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	p := NewGammaProvider(srv.URL, time.Second)
	_, _, err := p.FetchMarkets(context.Background())
	require.Error(t, err)
}

func TestGammaProviderEmptyURL(t *testing.T) {
	p := NewGammaProvider("", time.Second)
	_, _, err := p.FetchMarkets(context.Background())
	require.Error(t, err)
}

type staticProvider struct {
	raws []RawMarket
	err  error
}

func (s *staticProvider) FetchMarkets(ctx context.Context) ([]RawMarket, string, error) {
	return s.raws, "static", s.err
}

func TestMultiProviderFallsBack(t *testing.T) {
	mp := NewMultiProvider(
		&staticProvider{err: context.DeadlineExceeded},
		&staticProvider{raws: []RawMarket{{"id": "a"}}},
	)
	raws, source, err := mp.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Equal(t, "static", source)
	require.Len(t, raws, 1)
}

func TestMultiProviderAllFail(t *testing.T) {
	mp := NewMultiProvider(&staticProvider{err: context.DeadlineExceeded})
	_, _, err := mp.FetchMarkets(context.Background())
	require.Error(t, err)
}

func TestMultiProviderEmpty(t *testing.T) {
	_, _, err := NewMultiProvider().FetchMarkets(context.Background())
	require.Error(t, err)
}
