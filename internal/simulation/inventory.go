package simulation

import (
	"fmt"
	"math"
)

// Employee is a member of the synthetic workforce. IDs start at 1.
type Employee struct {
	ID         int
	Department string
}

// Space is one bookable unit. Capacity comes from its space type and is
// used as the selection weight.
type Space struct {
	ID        int
	Region    string
	Country   string
	City      string
	Building  string
	Floor     int
	SpaceType string
	Capacity  int
}

// BuildEmployees assigns every employee a department with one categorical
// draw each, in ID order.
func BuildEmployees(src Source, total int, departments []DepartmentShare) ([]Employee, error) {
	if total <= 0 {
		return nil, fmt.Errorf("build employees: total must be positive, got %d", total)
	}
	weights := make([]float64, len(departments))
	for i, dep := range departments {
		weights[i] = dep.Probability
	}
	picker, err := NewWeightedPicker(weights)
	if err != nil {
		return nil, fmt.Errorf("build employees: %w", err)
	}

	employees := make([]Employee, total)
	for i := range employees {
		employees[i] = Employee{ID: i + 1, Department: departments[picker.Pick(src)].Name}
	}
	return employees, nil
}

// SpacesPerType returns how many spaces of a type a building of the given
// capacity holds: floor(capacity * probability / type capacity).
func SpacesPerType(buildingCapacity int, st SpaceType) int {
	if st.Capacity <= 0 {
		return 0
	}
	n := math.Floor(float64(buildingCapacity) * st.BookingProbability / float64(st.Capacity))
	if n < 0 {
		return 0
	}
	return int(n)
}

// BuildSpaces expands the location catalog into spaces. Traversal is
// country, city, building, then space type, with one floor draw per space.
// IDs are assigned sequentially from 1 in that order.
func BuildSpaces(src Source, scenario Scenario) []Space {
	floorSpan := scenario.FloorMax - scenario.FloorMin + 1
	var spaces []Space
	nextID := 1
	for _, country := range scenario.Countries {
		buildingIdx := 0
		for _, city := range country.Cities {
			for _, building := range city.Buildings {
				capacity := 0
				if buildingIdx < len(country.CapacityPerBuilding) {
					capacity = country.CapacityPerBuilding[buildingIdx]
				}
				buildingIdx++
				for _, st := range scenario.SpaceTypes {
					count := SpacesPerType(capacity, st)
					for i := 0; i < count; i++ {
						spaces = append(spaces, Space{
							ID:        nextID,
							Region:    scenario.Region,
							Country:   country.Name,
							City:      city.Name,
							Building:  building,
							Floor:     scenario.FloorMin + src.IntN(floorSpan),
							SpaceType: st.Name,
							Capacity:  st.Capacity,
						})
						nextID++
					}
				}
			}
		}
	}
	return spaces
}
