package schedule

import (
	"fmt"
	"time"

	"github.com/hebcal/hebcal-go/hdate"
)

// Calendar converts dates of a source calendar to Gregorian dates.
type Calendar interface {
	// YearOf returns the source calendar year that contains the civil date of t.
	YearOf(t time.Time) int
	// ToGregorian returns the Gregorian date (at midnight UTC) of the given source date.
	ToGregorian(year, month, day int) (time.Time, error)
}

// InvalidDateError is returned when a date does not exist in a calendar year.
type InvalidDateError struct {
	Calendar string
	Year     int
	Month    int
	Day      int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%s date %d-%02d-%02d does not exist", e.Calendar, e.Year, e.Month, e.Day)
}

var _ error = (*InvalidDateError)(nil)

// Hebrew is the Hebrew calendar. Months are numbered from Nisan (1) to Adar II (13).
type Hebrew struct{}

func (Hebrew) YearOf(t time.Time) int {
	y, m, d := t.Date()
	return hdate.FromGregorian(y, m, d).Year()
}

func (Hebrew) ToGregorian(year, month, day int) (time.Time, error) {
	invalid := &InvalidDateError{Calendar: "hebrew", Year: year, Month: month, Day: day}
	if year < 1 || month < int(hdate.Nisan) || month > int(hdate.Adar2) {
		return time.Time{}, invalid
	}
	hm := hdate.HMonth(month)
	if hm == hdate.Adar2 && !hdate.IsLeapYear(year) {
		return time.Time{}, invalid
	}
	if day < 1 || day > hdate.DaysInMonth(hm, year) {
		return time.Time{}, invalid
	}
	y, m, d := hdate.New(year, hm, day).Gregorian().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Gregorian is the identity calendar.
type Gregorian struct{}

func (Gregorian) YearOf(t time.Time) int {
	return t.Year()
}

func (Gregorian) ToGregorian(year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if month < 1 || month > 12 || t.Day() != day {
		return time.Time{}, &InvalidDateError{Calendar: "gregorian", Year: year, Month: month, Day: day}
	}
	return t, nil
}

var (
	_ Calendar = Hebrew{}
	_ Calendar = Gregorian{}
)

// CalendarByName resolves a calendar from its configuration name.
func CalendarByName(name string) (Calendar, error) {
	switch name {
	case "", "hebrew":
		return Hebrew{}, nil
	case "gregorian":
		return Gregorian{}, nil
	default:
		return nil, fmt.Errorf("unknown calendar %q", name)
	}
}
