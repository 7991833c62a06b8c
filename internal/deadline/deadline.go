// Package deadline computes statutory deadlines as calendar-day offsets from
// an anchor instant, evaluated in a fixed time zone.
package deadline

import "time"

// Calculator is safe for concurrent use.
type Calculator struct {
	Location *time.Location
}

// New returns a Calculator for loc, falling back to UTC when loc is nil.
func New(loc *time.Location) Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return Calculator{Location: loc}
}

// Compute returns anchor plus days calendar days in the calculator's zone.
// A zero offset yields the anchor itself; negative offsets land in the past.
func (c Calculator) Compute(anchor time.Time, days int) time.Time {
	return c.In(anchor).AddDate(0, 0, days)
}

// In converts t to the calculator's zone without changing the instant.
func (c Calculator) In(t time.Time) time.Time {
	if c.Location == nil {
		return t.UTC()
	}
	return t.In(c.Location)
}
