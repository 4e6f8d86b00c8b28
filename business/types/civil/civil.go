// Package civil represents calendar dates carried as time values.
package civil

import "time"

// Date returns the calendar date of t, read in t's own location, as
// midnight UTC. Dates are stored and compared in this form.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of t as seen in loc, as midnight UTC.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return Date(t.In(loc))
}
