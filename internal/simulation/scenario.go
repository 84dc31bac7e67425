package simulation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/workspace-analytics/internal/calendar"
)

// probabilityTolerance bounds the rounding drift accepted when department
// shares are summed.
const probabilityTolerance = 1e-6

// DepartmentShare is one entry of the categorical department distribution.
type DepartmentShare struct {
	Name        string
	Probability float64
}

// City groups the buildings of a city in catalog order.
type City struct {
	Name      string
	Buildings []string
}

// Country is a location catalog entry. CapacityPerBuilding lists one capacity
// per building, in city order and then building order.
type Country struct {
	Name                string
	Cities              []City
	CapacityPerBuilding []int
}

// BuildingCount returns the number of buildings across all cities.
func (c Country) BuildingCount() int {
	total := 0
	for _, city := range c.Cities {
		total += len(city.Buildings)
	}
	return total
}

// SpaceType describes a bookable kind of space. BookingProbability is the
// share of a building's capacity allotted to this type.
type SpaceType struct {
	Name               string
	Capacity           int
	BookingProbability float64
}

// Scenario is the immutable input to a generator run.
type Scenario struct {
	StartDate         time.Time
	EndDate           time.Time
	TotalEmployees    int
	Departments       []DepartmentShare
	Region            string
	Countries         []Country
	SpaceTypes        []SpaceType
	WeekdayAttendance map[time.Weekday]float64
	NoShowRate        float64
	AdhocBookingRate  float64
	FloorMin          int
	FloorMax          int
	BookingAnchor     time.Duration
	BookingOffsetMin  time.Duration
	BookingOffsetMax  time.Duration
}

// DefaultScenario returns the reference parameters for the ASP region.
func DefaultScenario() Scenario {
	utc := calendar.NewEngine(time.UTC)
	return Scenario{
		StartDate:      utc.Date(2025, time.January, 1),
		EndDate:        utc.Date(2025, time.June, 30),
		TotalEmployees: 12000,
		Departments: []DepartmentShare{
			{Name: "Global Markets", Probability: 0.15},
			{Name: "Wealth & Personal Banking", Probability: 0.20},
			{Name: "Operations", Probability: 0.25},
			{Name: "IT", Probability: 0.20},
			{Name: "Human Resources", Probability: 0.10},
			{Name: "Corporate Services", Probability: 0.10},
		},
		Region: "ASP",
		Countries: []Country{
			{
				Name:                "Hong Kong",
				Cities:              []City{{Name: "Hong Kong", Buildings: []string{"HKG Main Office Tower 1", "HKG Tower 2"}}},
				CapacityPerBuilding: []int{2500, 2000},
			},
			{
				Name:                "Singapore",
				Cities:              []City{{Name: "Singapore", Buildings: []string{"SGP Marina Bay Financial Centre", "SGP Business Park"}}},
				CapacityPerBuilding: []int{2800, 1800},
			},
			{
				Name:                "Malaysia",
				Cities:              []City{{Name: "Kuala Lumpur", Buildings: []string{"KUL Menara HSBC"}}},
				CapacityPerBuilding: []int{1000},
			},
			{
				Name:                "Australia",
				Cities:              []City{{Name: "Sydney", Buildings: []string{"SYD International Tower"}}},
				CapacityPerBuilding: []int{800},
			},
		},
		SpaceTypes: []SpaceType{
			{Name: "Individual Workstation", Capacity: 1, BookingProbability: 0.60},
			{Name: "Quiet Pod", Capacity: 1, BookingProbability: 0.10},
			{Name: "Small Meeting Room (2-4 pax)", Capacity: 4, BookingProbability: 0.15},
			{Name: "Medium Meeting Room (6-8 pax)", Capacity: 8, BookingProbability: 0.10},
			{Name: "Large Meeting Room (10+ pax)", Capacity: 15, BookingProbability: 0.03},
			{Name: "Collaboration Zone", Capacity: 10, BookingProbability: 0.02},
		},
		WeekdayAttendance: map[time.Weekday]float64{
			time.Monday:    0.35,
			time.Tuesday:   0.62,
			time.Wednesday: 0.68,
			time.Thursday:  0.65,
			time.Friday:    0.30,
		},
		NoShowRate:       0.15,
		AdhocBookingRate: 0.20,
		FloorMin:         5,
		FloorMax:         24,
		BookingAnchor:    9 * time.Hour,
		BookingOffsetMin: -1 * time.Hour,
		BookingOffsetMax: 8 * time.Hour,
	}
}

// Clone returns a deep copy so callers can derive variants without sharing
// slices or maps with the original.
func (s Scenario) Clone() Scenario {
	out := s
	out.Departments = append([]DepartmentShare(nil), s.Departments...)
	out.SpaceTypes = append([]SpaceType(nil), s.SpaceTypes...)
	out.Countries = make([]Country, len(s.Countries))
	for i, country := range s.Countries {
		cities := make([]City, len(country.Cities))
		for j, city := range country.Cities {
			cities[j] = City{Name: city.Name, Buildings: append([]string(nil), city.Buildings...)}
		}
		out.Countries[i] = Country{
			Name:                country.Name,
			Cities:              cities,
			CapacityPerBuilding: append([]int(nil), country.CapacityPerBuilding...),
		}
	}
	if s.WeekdayAttendance != nil {
		out.WeekdayAttendance = make(map[time.Weekday]float64, len(s.WeekdayAttendance))
		for day, p := range s.WeekdayAttendance {
			out.WeekdayAttendance[day] = p
		}
	}
	return out
}

// Validate reports every configuration problem at once. A nil return means
// the scenario is safe to hand to NewGenerator.
func (s Scenario) Validate() error {
	vErr := &ValidationError{}

	if s.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if s.EndDate.IsZero() {
		vErr.add("end_date", "end date is required")
	}
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		vErr.add("end_date", "end date must not precede start date")
	}
	if s.TotalEmployees <= 0 {
		vErr.add("total_employees", "total employees must be positive")
	}

	validateDepartments(vErr, s.Departments)
	validateCountries(vErr, s.Countries)
	validateSpaceTypes(vErr, s.SpaceTypes)

	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		key := "weekday_attendance." + strings.ToLower(day.String())
		p, ok := s.WeekdayAttendance[day]
		if !ok {
			vErr.add(key, "attendance probability is required")
			continue
		}
		if !isProbability(p) {
			vErr.add(key, "attendance probability must be within [0, 1]")
		}
	}

	if !isProbability(s.NoShowRate) {
		vErr.add("no_show_rate", "rate must be within [0, 1]")
	}
	if !isProbability(s.AdhocBookingRate) {
		vErr.add("adhoc_booking_rate", "rate must be within [0, 1]")
	}
	if s.FloorMin < 0 {
		vErr.add("floor_min", "floor must not be negative")
	}
	if s.FloorMax < s.FloorMin {
		vErr.add("floor_max", "floor range is empty")
	}
	if s.BookingOffsetMax < s.BookingOffsetMin {
		vErr.add("booking_offset_max", "offset range is empty")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateDepartments(vErr *ValidationError, departments []DepartmentShare) {
	if len(departments) == 0 {
		vErr.add("departments", "at least one department is required")
		return
	}
	seen := make(map[string]struct{}, len(departments))
	total := 0.0
	for i, dep := range departments {
		if strings.TrimSpace(dep.Name) == "" {
			vErr.add(fmt.Sprintf("departments[%d].name", i), "name is required")
		}
		if _, dup := seen[dep.Name]; dup {
			vErr.add(fmt.Sprintf("departments[%d].name", i), "duplicate department")
		}
		seen[dep.Name] = struct{}{}
		if !isProbability(dep.Probability) {
			vErr.add(fmt.Sprintf("departments[%d].probability", i), "probability must be within [0, 1]")
		}
		total += dep.Probability
	}
	if math.Abs(total-1) > probabilityTolerance {
		vErr.add("departments", fmt.Sprintf("probabilities must sum to 1, got %.6f", total))
	}
}

func validateCountries(vErr *ValidationError, countries []Country) {
	if len(countries) == 0 {
		vErr.add("countries", "at least one country is required")
		return
	}
	seen := make(map[string]struct{}, len(countries))
	for i, country := range countries {
		prefix := fmt.Sprintf("countries[%d]", i)
		if strings.TrimSpace(country.Name) == "" {
			vErr.add(prefix+".name", "name is required")
		}
		if _, dup := seen[country.Name]; dup {
			vErr.add(prefix+".name", "duplicate country")
		}
		seen[country.Name] = struct{}{}
		if len(country.Cities) == 0 {
			vErr.add(prefix+".cities", "at least one city is required")
		}
		if got, want := len(country.CapacityPerBuilding), country.BuildingCount(); got != want {
			vErr.add(prefix+".capacity_per_building", fmt.Sprintf("expected %d capacities, got %d", want, got))
		}
		for j, capacity := range country.CapacityPerBuilding {
			if capacity < 0 {
				vErr.add(fmt.Sprintf("%s.capacity_per_building[%d]", prefix, j), "capacity must not be negative")
			}
		}
	}
}

func validateSpaceTypes(vErr *ValidationError, types []SpaceType) {
	if len(types) == 0 {
		vErr.add("space_types", "at least one space type is required")
		return
	}
	for i, st := range types {
		prefix := fmt.Sprintf("space_types[%d]", i)
		if strings.TrimSpace(st.Name) == "" {
			vErr.add(prefix+".name", "name is required")
		}
		if st.Capacity <= 0 {
			vErr.add(prefix+".capacity", "capacity must be positive")
		}
		if !isProbability(st.BookingProbability) {
			vErr.add(prefix+".booking_probability", "probability must be within [0, 1]")
		}
	}
}

func isProbability(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}

// ValidationError captures field level scenario problems.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "invalid scenario"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "invalid scenario: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}
