package gamification

import (
	"fmt"
	"time"
)

// DateLayout is how calendar dates are stored on the user row
const DateLayout = "2006-01-02"

// DateString formats t as a calendar date in its own location
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b (b - a)
func DaysBetween(a, b string) (int, error) {
	ta, err := time.Parse(DateLayout, a)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", a, err)
	}
	tb, err := time.Parse(DateLayout, b)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", b, err)
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}
