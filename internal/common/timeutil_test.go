package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayUTC(t *testing.T) {
	millis := time.Date(2026, 8, 5, 23, 59, 59, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2026-08-05", DayUTC(millis))
}

func TestDayWindowUTC(t *testing.T) {
	start, end := DayWindowUTC("2026-08-05")
	assert.Equal(t, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC).UnixMilli(), start)
	assert.Equal(t, time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC).UnixMilli(), end)

	// Bad input falls back to today's window
	start, end = DayWindowUTC("garbage")
	assert.Equal(t, int64(24*time.Hour/time.Millisecond), end-start)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.333, Round3(0.3333333))
	assert.Equal(t, 0.667, Round3(0.6666666))
	assert.Equal(t, -0.667, Round3(-0.6666666))
	assert.Equal(t, 1.0, Round3(0.9999))
	assert.Equal(t, 0.82, Round3(0.82))
}
