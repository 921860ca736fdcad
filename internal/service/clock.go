package service

import (
	"time"

	"sorokinportal/internal/gamification"
)

// Clock supplies the current time in the portal's configured timezone.
// Calendar dates for streaks, quotas and activity are taken from it.
type Clock struct {
	Location *time.Location
	NowFunc  func() time.Time
}

// NewClock returns a wall clock for loc (time.Local when nil)
func NewClock(loc *time.Location) Clock {
	return Clock{Location: loc}
}

// Now returns the current time in the clock's location
func (c Clock) Now() time.Time {
	now := time.Now
	if c.NowFunc != nil {
		now = c.NowFunc
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Today is the local calendar date as YYYY-MM-DD
func (c Clock) Today() string {
	return gamification.DateString(c.Now())
}
