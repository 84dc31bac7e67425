package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/logging"
)

// ErrNilSource is returned when a generator is constructed without randomness.
var ErrNilSource = errors.New("simulation: random source is required")

// Stats summarises one generator run.
type Stats struct {
	Days             int
	Workdays         int
	WeekendDays      int
	AttendanceEvents int
	SkippedNoSpace   int
	Rows             int
}

// Result is the output of a generator run.
type Result struct {
	Employees []Employee
	Spaces    []Space
	Records   []Record
	Stats     Stats
}

// Generator simulates daily attendance and booking behaviour for a scenario.
// A Generator consumes its Source, so a second Run continues the stream
// instead of replaying it.
type Generator struct {
	scenario Scenario
	src      Source
	calendar *calendar.Engine
	logger   *slog.Logger
}

// NewGenerator validates the scenario and returns a generator bound to src.
func NewGenerator(scenario Scenario, src Source) (*Generator, error) {
	return NewGeneratorWithLogger(scenario, src, nil)
}

// NewGeneratorWithLogger is NewGenerator with an explicit logger.
func NewGeneratorWithLogger(scenario Scenario, src Source, logger *slog.Logger) (*Generator, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		scenario: scenario.Clone(),
		src:      src,
		calendar: calendar.NewEngine(scenario.StartDate.Location()),
		logger:   logger,
	}, nil
}

// Scenario returns a copy of the scenario the generator was built with.
func (g *Generator) Scenario() Scenario {
	return g.scenario.Clone()
}

type spacePool struct {
	spaces []Space
	picker *WeightedPicker
}

type cohort struct {
	department string
	members    []Employee
	country    string
}

// Run builds the employee and space inventories and simulates every day of
// the horizon. Draws are consumed in a fixed order: departments, floors,
// then per workday attendance, cohort countries and per booking draws.
func (g *Generator) Run(ctx context.Context) (result Result, err error) {
	if g == nil {
		return Result{}, fmt.Errorf("generator is nil")
	}

	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = g.logger
	}
	logger = logger.With("component", "generator",
		"start_date", g.scenario.StartDate.Format(calendar.DateLayout),
		"end_date", g.scenario.EndDate.Format(calendar.DateLayout),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "generation failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "generation complete",
			"employees", len(result.Employees),
			"spaces", len(result.Spaces),
			"workdays", result.Stats.Workdays,
			"attendance_events", result.Stats.AttendanceEvents,
			"skipped_no_space", result.Stats.SkippedNoSpace,
			"rows", result.Stats.Rows,
		)
	}()

	days, err := g.calendar.Days(calendar.Horizon{Start: g.scenario.StartDate, End: g.scenario.EndDate})
	if err != nil {
		return Result{}, err
	}

	employees, err := BuildEmployees(g.src, g.scenario.TotalEmployees, g.scenario.Departments)
	if err != nil {
		return Result{}, err
	}
	spaces := BuildSpaces(g.src, g.scenario)
	pools := buildPools(spaces)
	logger.DebugContext(ctx, "inventory built", "employees", len(employees), "spaces", len(spaces))

	result.Employees = employees
	result.Spaces = spaces
	result.Stats.Days = len(days)

	for _, day := range days {
		if err = ctx.Err(); err != nil {
			return Result{}, err
		}
		if !day.Workday {
			result.Stats.WeekendDays++
			continue
		}
		result.Stats.Workdays++

		present := g.drawAttendance(employees, g.scenario.WeekdayAttendance[day.Weekday])
		result.Stats.AttendanceEvents += len(present)
		if len(present) == 0 {
			continue
		}

		cohorts := groupByDepartment(present)
		for i := range cohorts {
			cohorts[i].country = g.scenario.Countries[g.src.IntN(len(g.scenario.Countries))].Name
		}

		for _, c := range cohorts {
			pool := pools[c.country]
			for _, emp := range c.members {
				adhoc := Bernoulli(g.src, g.scenario.AdhocBookingRate)
				if pool == nil {
					result.Stats.SkippedNoSpace++
					continue
				}
				space := pool.spaces[pool.picker.Pick(g.src)]

				activity := ActivityDeskBooking
				status := StatusConfirmed
				if adhoc {
					activity = ActivityCheckIn
				} else if Bernoulli(g.src, g.scenario.NoShowRate) {
					status = StatusNoShow
				}

				offset := UniformDuration(g.src, g.scenario.BookingOffsetMin, g.scenario.BookingOffsetMax)
				result.Records = append(result.Records, Record{
					Date:          day.Date,
					Time:          NewTimeOfDay(g.scenario.BookingAnchor + offset),
					EmployeeID:    emp.ID,
					Department:    emp.Department,
					ActivityType:  activity,
					SpaceID:       space.ID,
					BookingStatus: status,
					Region:        space.Region,
					Country:       space.Country,
					City:          space.City,
					Building:      space.Building,
					Floor:         space.Floor,
					SpaceType:     space.SpaceType,
				})
			}
			if pool == nil {
				logger.DebugContext(ctx, "country has no spaces; cohort skipped",
					"date", day.Date.Format(calendar.DateLayout),
					"department", c.department,
					"country", c.country,
					"employees", len(c.members),
				)
			}
		}
	}

	result.Stats.Rows = len(result.Records)
	return result, nil
}

// drawAttendance consumes one draw per employee, in ID order, even when the
// probability is zero or one.
func (g *Generator) drawAttendance(employees []Employee, p float64) []Employee {
	var present []Employee
	for _, emp := range employees {
		if Bernoulli(g.src, p) {
			present = append(present, emp)
		}
	}
	return present
}

// groupByDepartment keeps departments in order of first appearance and
// members in their original order.
func groupByDepartment(present []Employee) []cohort {
	index := make(map[string]int)
	var cohorts []cohort
	for _, emp := range present {
		i, ok := index[emp.Department]
		if !ok {
			i = len(cohorts)
			index[emp.Department] = i
			cohorts = append(cohorts, cohort{department: emp.Department})
		}
		cohorts[i].members = append(cohorts[i].members, emp)
	}
	return cohorts
}

func buildPools(spaces []Space) map[string]*spacePool {
	byCountry := make(map[string][]Space)
	for _, sp := range spaces {
		byCountry[sp.Country] = append(byCountry[sp.Country], sp)
	}
	pools := make(map[string]*spacePool, len(byCountry))
	for country, list := range byCountry {
		weights := make([]float64, len(list))
		for i, sp := range list {
			weights[i] = float64(sp.Capacity)
		}
		picker, err := NewWeightedPicker(weights)
		if err != nil {
			continue
		}
		pools[country] = &spacePool{spaces: list, picker: picker}
	}
	return pools
}
