package simulation

import (
	"fmt"
	"time"
)

const (
	ActivityCheckIn     = "Check-in"
	ActivityDeskBooking = "Desk Booking"

	StatusConfirmed = "Confirmed"
	StatusNoShow    = "No-Show"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall clock time with second precision, stored as seconds
// since midnight.
type TimeOfDay int

// NewTimeOfDay folds an offset from midnight into a single day and drops the
// sub-second part. The calendar date of the booking is never adjusted.
func NewTimeOfDay(d time.Duration) TimeOfDay {
	secs := int64(d / time.Second)
	secs %= secondsPerDay
	if secs < 0 {
		secs += secondsPerDay
	}
	return TimeOfDay(secs)
}

// ParseTimeOfDay parses HH:MM:SS.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse(time.TimeOnly, value)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", value, err)
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// String formats the value as HH:MM:SS.
func (t TimeOfDay) String() string {
	secs := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

// Record is one booking row of the flat dataset.
type Record struct {
	Date          time.Time
	Time          TimeOfDay
	EmployeeID    int
	Department    string
	ActivityType  string
	SpaceID       int
	BookingStatus string
	Region        string
	Country       string
	City          string
	Building      string
	Floor         int
	SpaceType     string
}

// Employee returns the employee half of the record.
func (r Record) Employee() Employee {
	return Employee{ID: r.EmployeeID, Department: r.Department}
}

// Space returns the space half of the record. Capacity is not carried by the
// flat dataset and is left zero.
func (r Record) Space() Space {
	return Space{
		ID:        r.SpaceID,
		Region:    r.Region,
		Country:   r.Country,
		City:      r.City,
		Building:  r.Building,
		Floor:     r.Floor,
		SpaceType: r.SpaceType,
	}
}
