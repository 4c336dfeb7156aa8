package common

import "time"

// NowMillis returns the current UTC time as epoch milliseconds. All persisted
// timestamps use this representation.
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// DayUTC formats epoch milliseconds as a YYYY-MM-DD UTC date string
func DayUTC(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}

// TodayUTC returns the current UTC date as YYYY-MM-DD
func TodayUTC() string {
	return DayUTC(NowMillis())
}

// DayWindowUTC returns the [start, end) epoch-millisecond window for a
// YYYY-MM-DD UTC date. Falls back to today when the date does not parse.
func DayWindowUTC(date string) (int64, int64) {
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		t, _ = time.ParseInLocation("2006-01-02", TodayUTC(), time.UTC)
	}
	start := t.UnixMilli()
	return start, t.Add(24 * time.Hour).UnixMilli()
}
