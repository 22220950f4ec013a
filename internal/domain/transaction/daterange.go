package transaction

import (
	"time"
)

// DefaultWindowDays is the trailing window used when no usable range is given.
const DefaultWindowDays = 720

// undefinedBound is what the web client sends for an unset date picker.
const undefinedBound = "undefined"

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DefaultRange returns the trailing window of the given length ending today.
func DefaultRange(now time.Time, days int) DateRange {
	if days <= 0 {
		days = DefaultWindowDays
	}
	end := Truncate(now)
	return DateRange{Start: end.AddDate(0, 0, -days), End: end}
}

// ParseDateRange builds a range from two YYYY-MM-DD bounds. Both bounds must
// parse and be ordered; otherwise, including when either is empty or the
// literal "undefined", the trailing default window is returned.
func ParseDateRange(start, end string, now time.Time, windowDays int) DateRange {
	s, okStart := parseBound(start)
	e, okEnd := parseBound(end)
	if !okStart || !okEnd || e.Before(s) {
		return DefaultRange(now, windowDays)
	}
	return DateRange{Start: s, End: e}
}

func parseBound(v string) (time.Time, bool) {
	if v == "" || v == undefinedBound {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Contains reports whether the calendar day of t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Truncate(t)
	return !d.Before(r.Start) && !d.After(r.End)
}
