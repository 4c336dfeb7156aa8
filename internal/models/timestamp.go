package models

import (
	"encoding/json"
	"time"
)

// Activity providers are inconsistent about timestamp encoding: some send
// epoch seconds, some epoch milliseconds, some ISO-8601 strings. Numbers
// above 1e12 are treated as milliseconds, above 1e9 as seconds.
const (
	millisThreshold = 1_000_000_000_000
	secondsThreshold = 1_000_000_000
)

// ParseTimestampMillis normalises a raw provider timestamp to UTC epoch
// milliseconds. Returns false when the value cannot be interpreted.
func ParseTimestampMillis(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case int64:
		return numericMillis(float64(v))
	case int:
		return numericMillis(float64(v))
	case float64:
		return numericMillis(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return numericMillis(f)
	case string:
		if v == "" {
			return 0, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC().UnixMilli(), true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

func numericMillis(v float64) (int64, bool) {
	if v <= 0 {
		return 0, false
	}
	if v > millisThreshold {
		return int64(v), true
	}
	if v > secondsThreshold {
		return int64(v) * 1000, true
	}
	// Too small to be a plausible epoch value in either unit
	return 0, false
}
