package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/workspace-analytics/internal/simulation"
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures. It
// falls on a Monday.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns ReferenceTime truncated to midnight UTC.
func ReferenceDate() time.Time {
	return referenceTime.Truncate(24 * time.Hour)
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ----------------------------- Scenario fixtures -----------------------------

// ScenarioOption adjusts a scenario fixture.
type ScenarioOption func(*simulation.Scenario)

// SmallScenario returns a one week, two country scenario that generates a few
// hundred rows. Options are applied in order.
func SmallScenario(opts ...ScenarioOption) simulation.Scenario {
	s := simulation.Scenario{
		StartDate:      ReferenceDate(),
		EndDate:        ReferenceDate().AddDate(0, 0, 6),
		TotalEmployees: 60,
		Departments: []simulation.DepartmentShare{
			{Name: "Operations", Probability: 0.5},
			{Name: "IT", Probability: 0.3},
			{Name: "Human Resources", Probability: 0.2},
		},
		Region: "ASP",
		Countries: []simulation.Country{
			{
				Name:                "Hong Kong",
				Cities:              []simulation.City{{Name: "Hong Kong", Buildings: []string{"HKG Tower 1", "HKG Tower 2"}}},
				CapacityPerBuilding: []int{40, 20},
			},
			{
				Name:                "Singapore",
				Cities:              []simulation.City{{Name: "Singapore", Buildings: []string{"SGP Business Park"}}},
				CapacityPerBuilding: []int{30},
			},
		},
		SpaceTypes: []simulation.SpaceType{
			{Name: "Individual Workstation", Capacity: 1, BookingProbability: 0.7},
			{Name: "Small Meeting Room (2-4 pax)", Capacity: 4, BookingProbability: 0.3},
		},
		WeekdayAttendance: map[time.Weekday]float64{
			time.Monday:    0.4,
			time.Tuesday:   0.6,
			time.Wednesday: 0.7,
			time.Thursday:  0.6,
			time.Friday:    0.3,
		},
		NoShowRate:       0.15,
		AdhocBookingRate: 0.2,
		FloorMin:         1,
		FloorMax:         5,
		BookingAnchor:    9 * time.Hour,
		BookingOffsetMin: -time.Hour,
		BookingOffsetMax: 8 * time.Hour,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithEmployees overrides the population size.
func WithEmployees(n int) ScenarioOption {
	return func(s *simulation.Scenario) {
		s.TotalEmployees = n
	}
}

// WithDateRange overrides the simulated window.
func WithDateRange(start, end time.Time) ScenarioOption {
	return func(s *simulation.Scenario) {
		s.StartDate, s.EndDate = start, end
	}
}

// WithRates overrides the no-show and ad-hoc rates.
func WithRates(noShow, adhoc float64) ScenarioOption {
	return func(s *simulation.Scenario) {
		s.NoShowRate, s.AdhocBookingRate = noShow, adhoc
	}
}

// WithUniformAttendance sets every workday to the same attendance probability.
func WithUniformAttendance(p float64) ScenarioOption {
	return func(s *simulation.Scenario) {
		s.WeekdayAttendance = map[time.Weekday]float64{
			time.Monday: p, time.Tuesday: p, time.Wednesday: p, time.Thursday: p, time.Friday: p,
		}
	}
}

// Generate runs the generator over scenario with a seeded source and fails
// the test on any error.
func Generate(tb testing.TB, scenario simulation.Scenario, seed uint64) simulation.Result {
	tb.Helper()
	gen, err := simulation.NewGeneratorWithLogger(scenario, simulation.NewSeededSource(seed), DiscardLogger())
	if err != nil {
		tb.Fatalf("NewGenerator failed: %v", err)
	}
	result, err := gen.Run(context.Background())
	if err != nil {
		tb.Fatalf("Run failed: %v", err)
	}
	return result
}

// ----------------------------- Record fixtures -----------------------------

// RecordOption configures a record fixture.
type RecordOption func(*simulation.Record)

// NewRecord returns a confirmed desk booking by employee 1 in space 1 on
// ReferenceDate, located in HKG Tower 1.
func NewRecord(opts ...RecordOption) simulation.Record {
	rec := simulation.Record{
		Date:          ReferenceDate(),
		Time:          simulation.NewTimeOfDay(9 * time.Hour),
		EmployeeID:    1,
		Department:    "Operations",
		ActivityType:  simulation.ActivityDeskBooking,
		SpaceID:       1,
		BookingStatus: simulation.StatusConfirmed,
		Region:        "ASP",
		Country:       "Hong Kong",
		City:          "Hong Kong",
		Building:      "HKG Tower 1",
		Floor:         3,
		SpaceType:     "Individual Workstation",
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// OnDay moves the record to ReferenceDate plus offset days.
func OnDay(offset int) RecordOption {
	return func(r *simulation.Record) {
		r.Date = ReferenceDate().AddDate(0, 0, offset)
	}
}

// ByEmployee sets the employee and department.
func ByEmployee(id int, department string) RecordOption {
	return func(r *simulation.Record) {
		r.EmployeeID, r.Department = id, department
	}
}

// InSpace sets the space and its location attributes.
func InSpace(id int, country, city, building, spaceType string, floor int) RecordOption {
	return func(r *simulation.Record) {
		r.SpaceID = id
		r.Country, r.City, r.Building = country, city, building
		r.SpaceType, r.Floor = spaceType, floor
	}
}

// AsCheckIn marks the record as an ad-hoc check-in.
func AsCheckIn() RecordOption {
	return func(r *simulation.Record) {
		r.ActivityType = simulation.ActivityCheckIn
	}
}

// AsNoShow marks the record as a no-show.
func AsNoShow() RecordOption {
	return func(r *simulation.Record) {
		r.BookingStatus = simulation.StatusNoShow
	}
}
