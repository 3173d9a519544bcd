package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Normalize converts one raw upstream record into a canonical Market.
// It never fails: every missing or malformed field degrades to its
// documented default instead of producing an error.
func Normalize(raw RawMarket) Market {
	m := Market{
		ID:       firstString(raw, "id", "slug", "question"),
		Question: asString(raw["question"]),
		Category: asString(raw["category"]),
		Icon:     firstString(raw, "icon", "image"),
	}

	// Fallback order is policy: 24h volume, then 1-week, then the generic
	// numeric field. Coercion failure at any stage reads as 0, so an
	// explicit upstream zero and an absent field are indistinguishable.
	m.Volume = firstNumber(raw, "volume24hr", "volume1wk", "volumeNum")
	if m.Volume < 0 {
		m.Volume = 0
	}

	m.SignedChange = firstNumber(raw, "oneDayPriceChange", "oneHourPriceChange")
	m.PriceChange = math.Abs(m.SignedChange)

	if yes, no, ok := outcomePrices(raw["outcomePrices"]); ok {
		m.YesPrice = yes
		m.NoPrice = no
		m.HasPrices = true
	}

	return m
}

// NormalizeAll maps a whole upstream batch, dropping records that resolve
// to an empty id (nothing to key deltas on).
func NormalizeAll(raws []RawMarket) []Market {
	out := make([]Market, 0, len(raws))
	for _, raw := range raws {
		m := Normalize(raw)
		if m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func firstString(raw RawMarket, keys ...string) string {
	for _, k := range keys {
		if s := asString(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(raw RawMarket, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if f, ok := toNumber(v); ok {
				return f
			}
		}
	}
	return 0
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// toNumber coerces a JSON value into a finite float64. Numbers arrive from
// the upstream as float64, string, or json.Number depending on the field.
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// outcomePrices reads a two-outcome price pair. The Gamma API serves
// outcomePrices both as a JSON array and as a JSON-encoded string like
// "[\"0.4\",\"0.6\"]"; both forms are accepted.
func outcomePrices(v any) (yes, no float64, ok bool) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case string:
		var strs []string
		if err := json.Unmarshal([]byte(t), &strs); err != nil {
			return 0, 0, false
		}
		items = make([]any, len(strs))
		for i, s := range strs {
			items[i] = s
		}
	default:
		return 0, 0, false
	}
	if len(items) < 2 {
		return 0, 0, false
	}
	yes, yesOK := toNumber(items[0])
	no, noOK := toNumber(items[1])
	if !yesOK || !noOK {
		return 0, 0, false
	}
	if yes < 0 || no < 0 {
		return 0, 0, false
	}
	return yes, no, true
}
