package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAt(t *testing.T) {
	// Second 5 of 10:04 on 2025-03-15, UTC for determinism.
	ts := time.Date(2025, 3, 15, 10, 4, 5, 0, time.UTC)

	t.Run("window identifiers", func(t *testing.T) {
		w := At(ts)
		assert.Equal(t, "202503151004", w.MinuteID)
		assert.Equal(t, "20250315", w.DayID)
	})

	t.Run("remaining durations", func(t *testing.T) {
		w := At(ts)
		assert.Equal(t, 55*time.Second, w.MinuteRemaining)
		assert.Equal(t, 13*time.Hour+55*time.Minute+55*time.Second, w.DayRemaining)
	})

	t.Run("adjacent minutes get distinct identifiers", func(t *testing.T) {
		before := At(time.Date(2025, 3, 15, 10, 4, 59, 999_000_000, time.UTC))
		after := At(time.Date(2025, 3, 15, 10, 5, 0, 0, time.UTC))
		assert.NotEqual(t, before.MinuteID, after.MinuteID)
		assert.Equal(t, before.DayID, after.DayID)
	})

	t.Run("day rolls at local midnight", func(t *testing.T) {
		before := At(time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC))
		after := At(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC))
		assert.NotEqual(t, before.DayID, after.DayID)
	})

	t.Run("exact minute boundary has a full window remaining", func(t *testing.T) {
		w := At(time.Date(2025, 3, 15, 10, 5, 0, 0, time.UTC))
		assert.Equal(t, time.Minute, w.MinuteRemaining)
	})
}

func TestTTLs(t *testing.T) {
	ts := time.Date(2025, 3, 15, 10, 4, 5, 0, time.UTC)
	w := At(ts)

	t.Run("minute TTL includes buffer", func(t *testing.T) {
		assert.Equal(t, 55*time.Second+MinuteBuffer, w.MinuteTTL())
	})

	t.Run("day TTL includes buffer", func(t *testing.T) {
		assert.Equal(t, w.DayRemaining+DayBuffer, w.DayTTL())
	})

	t.Run("TTL never shorter than remaining window", func(t *testing.T) {
		for sec := 0; sec < 60; sec += 7 {
			w := At(time.Date(2025, 3, 15, 10, 4, sec, 0, time.UTC))
			assert.GreaterOrEqual(t, w.MinuteTTL(), w.MinuteRemaining)
			assert.GreaterOrEqual(t, w.DayTTL(), w.DayRemaining)
		}
	})
}
