package schedule

import "fmt"

// Event names a recurring occasion. The set of events is fixed at compile time.
type Event string

const (
	NewAcademicYear Event = "new_academic_year"
	RoshHashana     Event = "rosh_hashana"
	SemesterB       Event = "semester_b"
)

// Occurrence is the calendar date and local time at which an event recurs every year.
// Month uses the numbering of the Calendar it is resolved against.
type Occurrence struct {
	Month  int
	Day    int
	Hour   int
	Minute int
}

func (o Occurrence) validate() error {
	switch {
	case o.Month < 1 || o.Month > 13:
		return fmt.Errorf("month %d out of range", o.Month)
	case o.Day < 1 || o.Day > 31:
		return fmt.Errorf("day %d out of range", o.Day)
	case o.Hour < 0 || o.Hour > 23:
		return fmt.Errorf("hour %d out of range", o.Hour)
	case o.Minute < 0 || o.Minute > 59:
		return fmt.Errorf("minute %d out of range", o.Minute)
	}
	return nil
}

// Definitions returns the recurring events the bot knows about, keyed on the Hebrew
// calendar with Nisan as month 1.
func Definitions() map[Event]Occurrence {
	return map[Event]Occurrence{
		NewAcademicYear: {Month: 5, Day: 26, Hour: 16},
		RoshHashana:     {Month: 7, Day: 1, Hour: 9},
		SemesterB:       {Month: 11, Day: 1, Hour: 8},
	}
}

var titles = map[Event]string{
	NewAcademicYear: "New academic year",
	RoshHashana:     "Rosh Hashana",
	SemesterB:       "Spring semester",
}

// Title is a human readable name for the event.
func (e Event) Title() string {
	if t, ok := titles[e]; ok {
		return t
	}
	return string(e)
}
