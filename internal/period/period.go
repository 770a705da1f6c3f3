// Package period resolves named reporting periods such as "last_month" into
// inclusive date ranges.
package period

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// ErrUnknownPeriod is returned for a period name Parse does not recognize.
var ErrUnknownPeriod = errors.New("unknown period")

// Names lists the accepted period names.
var Names = []string{
	"this_month", "last_month",
	"this_year", "last_year",
	"last_7_days", "last_30_days", "last_90_days",
	"ytd",
}

// Range is an inclusive date range.
type Range struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Parse returns the range named by name relative to now.
func Parse(name string, now time.Time) (Range, error) {
	today := civil.DateOf(now)
	switch name {
	case "this_month":
		return MonthRange(today.Year, today.Month)
	case "last_month":
		prev := civil.Date{Year: today.Year, Month: today.Month, Day: 1}.AddDays(-1)
		return MonthRange(prev.Year, prev.Month)
	case "this_year", "ytd":
		return Range{Start: civil.Date{Year: today.Year, Month: time.January, Day: 1}, End: today}, nil
	case "last_year":
		y := today.Year - 1
		return Range{
			Start: civil.Date{Year: y, Month: time.January, Day: 1},
			End:   civil.Date{Year: y, Month: time.December, Day: 31},
		}, nil
	case "last_7_days":
		return Range{Start: today.AddDays(-7), End: today}, nil
	case "last_30_days":
		return Range{Start: today.AddDays(-30), End: today}, nil
	case "last_90_days":
		return Range{Start: today.AddDays(-90), End: today}, nil
	}
	return Range{}, fmt.Errorf("%w: %q (expected one of %v)", ErrUnknownPeriod, name, Names)
}

// MonthRange returns the first and last day of a month.
func MonthRange(year int, month time.Month) (Range, error) {
	if month < time.January || month > time.December {
		return Range{}, fmt.Errorf("MonthRange: month must be 1-12, got %d", month)
	}
	// Day 0 of the next month normalizes to the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return Range{Start: civil.Date{Year: year, Month: month, Day: 1}, End: civil.DateOf(last)}, nil
}
