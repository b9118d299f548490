// Package window maps timestamps to the fixed rate-limit windows used by the
// counter store: one calendar minute and one calendar day. Window identifiers
// are embedded in counter keys so a new window naturally starts at a fresh key.
package window

import (
	"time"
)

// Expiration buffers added on top of the remaining window time. Counters must
// never expire before their logical window ends; living slightly past it is
// harmless because the next window uses a different key.
const (
	MinuteBuffer = time.Second
	DayBuffer    = time.Hour
)

// Windows identifies the minute and day windows containing a timestamp and
// how long each window still has to run.
type Windows struct {
	MinuteID        string
	DayID           string
	MinuteRemaining time.Duration
	DayRemaining    time.Duration
}

// At computes both window identifiers and remaining durations for t.
// The minute window closes at :00 of the next minute; the day window closes
// at local midnight.
func At(t time.Time) Windows {
	minuteStart := t.Truncate(time.Minute)
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	return Windows{
		MinuteID:        minuteStart.Format("200601021504"),
		DayID:           dayStart.Format("20060102"),
		MinuteRemaining: minuteStart.Add(time.Minute).Sub(t),
		DayRemaining:    dayStart.Add(24 * time.Hour).Sub(t),
	}
}

// MinuteTTL is the counter expiration for the minute window: remaining time
// plus a skew buffer.
func (w Windows) MinuteTTL() time.Duration {
	return w.MinuteRemaining + MinuteBuffer
}

// DayTTL is the counter expiration for the day window: remaining time plus a
// skew buffer.
func (w Windows) DayTTL() time.Duration {
	return w.DayRemaining + DayBuffer
}
