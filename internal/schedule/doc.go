// Package schedule dispatches recurring calendar events to registered callbacks.
//
// Events form a closed set (see Definitions). Each event recurs on a fixed date of a
// Calendar, usually the Hebrew one, at a fixed local time. Modules register callbacks
// against an event with a priority band before the Scheduler starts; lower bands run
// first. Once started, the Scheduler keeps one armed deadline per event, dispatches the
// callbacks when it is reached and re-arms for the following year.
package schedule
