package persistence

import (
	"fmt"
	"time"

	"github.com/example/workspace-analytics/internal/simulation"
)

// Employee is the normalized employee row.
type Employee struct {
	ID         int
	Department string
}

// Space is the normalized space row.
type Space struct {
	ID        int
	Region    string
	Country   string
	City      string
	Building  string
	Floor     int
	SpaceType string
}

// Booking is one bookings row. ID is assigned by the store in insertion order.
type Booking struct {
	ID            int64
	Date          time.Time
	Time          simulation.TimeOfDay
	EmployeeID    int
	SpaceID       int
	ActivityType  string
	BookingStatus string
}

// LoadRequest carries one flat dataset into ReplaceDataset.
type LoadRequest struct {
	Source   string
	Checksum string
	Records  []simulation.Record
}

// LoadRun describes a completed dataset load.
type LoadRun struct {
	ID        string
	Source    string
	Checksum  string
	Employees int
	Spaces    int
	Bookings  int
	LoadedAt  time.Time
}

// Normalize splits flat records into deduplicated employees and spaces plus
// one booking per record. Employees and spaces keep first-seen order. The
// same ID seen with different attributes yields ErrInconsistentDataset.
func Normalize(records []simulation.Record) ([]Employee, []Space, []Booking, error) {
	employeeIdx := make(map[int]int)
	spaceIdx := make(map[int]int)
	var employees []Employee
	var spaces []Space
	bookings := make([]Booking, 0, len(records))

	for i, rec := range records {
		emp := Employee{ID: rec.EmployeeID, Department: rec.Department}
		if j, ok := employeeIdx[emp.ID]; ok {
			if employees[j] != emp {
				return nil, nil, nil, inconsistent("employee", emp.ID, i)
			}
		} else {
			employeeIdx[emp.ID] = len(employees)
			employees = append(employees, emp)
		}

		sp := Space{
			ID:        rec.SpaceID,
			Region:    rec.Region,
			Country:   rec.Country,
			City:      rec.City,
			Building:  rec.Building,
			Floor:     rec.Floor,
			SpaceType: rec.SpaceType,
		}
		if j, ok := spaceIdx[sp.ID]; ok {
			if spaces[j] != sp {
				return nil, nil, nil, inconsistent("space", sp.ID, i)
			}
		} else {
			spaceIdx[sp.ID] = len(spaces)
			spaces = append(spaces, sp)
		}

		bookings = append(bookings, Booking{
			Date:          rec.Date,
			Time:          rec.Time,
			EmployeeID:    rec.EmployeeID,
			SpaceID:       rec.SpaceID,
			ActivityType:  rec.ActivityType,
			BookingStatus: rec.BookingStatus,
		})
	}
	return employees, spaces, bookings, nil
}

// OccupancyFilter narrows occupancy queries. Zero dates are unbounded. Only
// the narrowest non-empty location field applies: building, then city, then
// country.
type OccupancyFilter struct {
	From     time.Time
	To       time.Time
	Country  string
	City     string
	Building string
}

// DateRange is an inclusive span of booking dates.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// PeriodCount is the distinct confirmed occupancy of one period bucket.
type PeriodCount struct {
	Period    string
	Occupants int
}

// CategoryCount is a labelled booking count.
type CategoryCount struct {
	Name  string
	Count int
}

// StatusCounts breaks bookings down for rate calculations.
type StatusCounts struct {
	Total          int
	NoShows        int
	Confirmed      int
	ConfirmedAdhoc int
}

func inconsistent(kind string, id, row int) error {
	return fmt.Errorf("%w: %s %d has conflicting attributes at record %d", ErrInconsistentDataset, kind, id, row+1)
}
