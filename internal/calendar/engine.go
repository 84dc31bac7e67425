package calendar

import (
	"errors"
	"time"
)

// DateLayout is the wire format for calendar dates across the module.
const DateLayout = "2006-01-02"

// Horizon is an inclusive range of calendar dates.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// Day is a single calendar date produced by expanding a Horizon.
type Day struct {
	Date    time.Time
	Weekday time.Weekday
	Workday bool
}

// ErrInvalidWindow indicates the horizon ends before it starts.
var ErrInvalidWindow = errors.New("calendar: horizon end precedes start")

// Engine expands horizons into calendar days.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes dates to loc. If loc is nil,
// UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Days returns every date in the horizon, both bounds included.
//
// Dates are truncated to midnight in the engine's location and advanced by
// calendar day so daylight saving transitions never skip or repeat a date.
func (e *Engine) Days(h Horizon) ([]Day, error) {
	loc := e.loc()
	start := midnight(h.Start, loc)
	end := midnight(h.End, loc)
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}

	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		wd := current.Weekday()
		days = append(days, Day{Date: current, Weekday: wd, Workday: !IsWeekend(wd)})
	}
	return days, nil
}

// Date builds a midnight timestamp in the engine's location.
func (e *Engine) Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, e.loc())
}

// Parse reads a YYYY-MM-DD date in the engine's location.
func (e *Engine) Parse(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, e.loc())
}

func (e *Engine) loc() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// IsWeekend reports whether the weekday is Saturday or Sunday.
func IsWeekend(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
