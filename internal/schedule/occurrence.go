package schedule

import (
	"fmt"
	"time"
)

// At resolves the occurrence in the given calendar year to an instant in loc.
func (o Occurrence) At(cal Calendar, year int, loc *time.Location) (time.Time, error) {
	date, err := cal.ToGregorian(year, o.Month, o.Day)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, o.Hour, o.Minute, 0, 0, loc), nil
}

// NextOccurrence returns the first instant at or after now at which occ happens.
// An occurrence exactly at now is not yet due and is returned as is. When this
// calendar year's occurrence has passed, the next year's date is converted again
// rather than shifted, since the Gregorian date differs from year to year.
func NextOccurrence(cal Calendar, occ Occurrence, loc *time.Location, now time.Time) (time.Time, error) {
	year := cal.YearOf(now.In(loc))
	candidate, err := occ.At(cal, year, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve occurrence in year %d: %w", year, err)
	}
	if !candidate.Before(now) {
		return candidate, nil
	}

	candidate, err = occ.At(cal, year+1, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve occurrence in year %d: %w", year+1, err)
	}
	return candidate, nil
}
