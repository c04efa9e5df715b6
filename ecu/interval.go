package ecu

import "time"

// Interval rate-limits a periodic action against a Clock. The zero value with
// a period is due immediately.
type Interval struct {
	Period time.Duration
	last   time.Duration
	primed bool
}

func NewInterval(period time.Duration) *Interval {
	return &Interval{Period: period}
}

// Due reports whether the period has elapsed since the last Mark.
func (i *Interval) Due(now time.Duration) bool {
	return !i.primed || now-i.last >= i.Period
}

func (i *Interval) Mark(now time.Duration) {
	i.last = now
	i.primed = true
}

// Reset makes the interval due again.
func (i *Interval) Reset() {
	i.primed = false
	i.last = 0
}
