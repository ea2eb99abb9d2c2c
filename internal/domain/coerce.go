package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// The Coerce* helpers are the only boundary between raw upstream scalars and
// the canonical record. They never return an error: absence is the only
// failure signal, so a half-broken upstream payload degrades field by field
// instead of failing the request.

// CoerceNumber converts a loosely typed upstream scalar to a float64.
// Accepts numbers and numeric strings; comma decimal separators are
// normalized before parsing. Non-finite results count as absent.
func CoerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// CoercePercent converts a ratio-or-percent scalar to an integer percentage.
// Values at or below 1 are ratios and scale by 100; larger values are taken
// as already-percent. The result is rounded and clamped to [0, 100].
func CoercePercent(v any) (int, bool) {
	f, ok := CoerceNumber(v)
	if !ok {
		return 0, false
	}
	if f <= 1 {
		f *= 100
	}
	p := int(math.Round(f))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p, true
}

// instantLayouts are the accepted date-string formats, tried in order.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceInstant converts an already-structured time, a parseable date string,
// or a numeric epoch value (seconds, or milliseconds past 1e12) to a
// timestamp. Unparsable input is absent, never an error.
func CoerceInstant(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range instantLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return epochInstant(s)
	default:
		return epochInstant(v)
	}
}

func epochInstant(v any) (time.Time, bool) {
	f, ok := CoerceNumber(v)
	if !ok || f <= 0 {
		return time.Time{}, false
	}
	if f >= 1e12 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Unix(int64(f), 0).UTC(), true
}
