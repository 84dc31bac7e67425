package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/simulation"
)

// scenarioFile mirrors simulation.Scenario in a file friendly shape. Dates
// are quoted YYYY-MM-DD strings and durations use Go syntax ("9h", "-1h").
type scenarioFile struct {
	StartDate         string             `mapstructure:"start_date"`
	EndDate           string             `mapstructure:"end_date"`
	TotalEmployees    int                `mapstructure:"total_employees"`
	Region            string             `mapstructure:"region"`
	Departments       []departmentFile   `mapstructure:"departments"`
	Countries         []countryFile      `mapstructure:"countries"`
	SpaceTypes        []spaceTypeFile    `mapstructure:"space_types"`
	WeekdayAttendance map[string]float64 `mapstructure:"weekday_attendance"`
	NoShowRate        float64            `mapstructure:"no_show_rate"`
	AdhocBookingRate  float64            `mapstructure:"adhoc_booking_rate"`
	Floors            floorsFile         `mapstructure:"floors"`
	Booking           bookingFile        `mapstructure:"booking"`
}

type departmentFile struct {
	Name        string  `mapstructure:"name"`
	Probability float64 `mapstructure:"probability"`
}

type cityFile struct {
	Name      string   `mapstructure:"name"`
	Buildings []string `mapstructure:"buildings"`
}

type countryFile struct {
	Name                string     `mapstructure:"name"`
	Cities              []cityFile `mapstructure:"cities"`
	CapacityPerBuilding []int      `mapstructure:"capacity_per_building"`
}

type spaceTypeFile struct {
	Name               string  `mapstructure:"name"`
	Capacity           int     `mapstructure:"capacity"`
	BookingProbability float64 `mapstructure:"booking_probability"`
}

type floorsFile struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

type bookingFile struct {
	Anchor    time.Duration `mapstructure:"anchor"`
	OffsetMin time.Duration `mapstructure:"offset_min"`
	OffsetMax time.Duration `mapstructure:"offset_max"`
}

var scenarioDates = calendar.NewEngine(time.UTC)

// LoadScenario reads a YAML, JSON or TOML scenario file, chosen by extension,
// over simulation.DefaultScenario. Scalars and weekday entries override one
// key at a time; lists replace the default list as a whole. An empty path
// returns the validated default.
func LoadScenario(path string) (simulation.Scenario, error) {
	v := viper.New()
	setScenarioDefaults(v, simulation.DefaultScenario())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return simulation.Scenario{}, fmt.Errorf("read scenario file %s: %w", path, err)
		}
	}

	var file scenarioFile
	if err := v.Unmarshal(&file); err != nil {
		return simulation.Scenario{}, fmt.Errorf("decode scenario file %s: %w", path, err)
	}

	scenario, err := file.toScenario()
	if err != nil {
		return simulation.Scenario{}, fmt.Errorf("scenario file %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return simulation.Scenario{}, err
	}
	return scenario, nil
}

func setScenarioDefaults(v *viper.Viper, s simulation.Scenario) {
	v.SetDefault("start_date", s.StartDate.Format(calendar.DateLayout))
	v.SetDefault("end_date", s.EndDate.Format(calendar.DateLayout))
	v.SetDefault("total_employees", s.TotalEmployees)
	v.SetDefault("region", s.Region)
	v.SetDefault("no_show_rate", s.NoShowRate)
	v.SetDefault("adhoc_booking_rate", s.AdhocBookingRate)
	v.SetDefault("floors.min", s.FloorMin)
	v.SetDefault("floors.max", s.FloorMax)
	v.SetDefault("booking.anchor", s.BookingAnchor.String())
	v.SetDefault("booking.offset_min", s.BookingOffsetMin.String())
	v.SetDefault("booking.offset_max", s.BookingOffsetMax.String())
	for day, p := range s.WeekdayAttendance {
		v.SetDefault("weekday_attendance."+strings.ToLower(day.String()), p)
	}

	departments := make([]map[string]any, 0, len(s.Departments))
	for _, d := range s.Departments {
		departments = append(departments, map[string]any{"name": d.Name, "probability": d.Probability})
	}
	v.SetDefault("departments", departments)

	countries := make([]map[string]any, 0, len(s.Countries))
	for _, c := range s.Countries {
		cities := make([]map[string]any, 0, len(c.Cities))
		for _, city := range c.Cities {
			cities = append(cities, map[string]any{"name": city.Name, "buildings": append([]string(nil), city.Buildings...)})
		}
		countries = append(countries, map[string]any{
			"name":                  c.Name,
			"cities":                cities,
			"capacity_per_building": append([]int(nil), c.CapacityPerBuilding...),
		})
	}
	v.SetDefault("countries", countries)

	spaceTypes := make([]map[string]any, 0, len(s.SpaceTypes))
	for _, st := range s.SpaceTypes {
		spaceTypes = append(spaceTypes, map[string]any{
			"name":                st.Name,
			"capacity":            st.Capacity,
			"booking_probability": st.BookingProbability,
		})
	}
	v.SetDefault("space_types", spaceTypes)
}

func (f scenarioFile) toScenario() (simulation.Scenario, error) {
	start, err := scenarioDates.Parse(f.StartDate)
	if err != nil {
		return simulation.Scenario{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := scenarioDates.Parse(f.EndDate)
	if err != nil {
		return simulation.Scenario{}, fmt.Errorf("end_date: %w", err)
	}

	attendance := make(map[time.Weekday]float64, len(f.WeekdayAttendance))
	for name, p := range f.WeekdayAttendance {
		day, ok := parseWeekday(name)
		if !ok {
			return simulation.Scenario{}, fmt.Errorf("weekday_attendance: unknown weekday %q", name)
		}
		attendance[day] = p
	}

	s := simulation.Scenario{
		StartDate:         start,
		EndDate:           end,
		TotalEmployees:    f.TotalEmployees,
		Region:            f.Region,
		WeekdayAttendance: attendance,
		NoShowRate:        f.NoShowRate,
		AdhocBookingRate:  f.AdhocBookingRate,
		FloorMin:          f.Floors.Min,
		FloorMax:          f.Floors.Max,
		BookingAnchor:     f.Booking.Anchor,
		BookingOffsetMin:  f.Booking.OffsetMin,
		BookingOffsetMax:  f.Booking.OffsetMax,
	}
	for _, d := range f.Departments {
		s.Departments = append(s.Departments, simulation.DepartmentShare{Name: d.Name, Probability: d.Probability})
	}
	for _, c := range f.Countries {
		country := simulation.Country{Name: c.Name, CapacityPerBuilding: append([]int(nil), c.CapacityPerBuilding...)}
		for _, city := range c.Cities {
			country.Cities = append(country.Cities, simulation.City{Name: city.Name, Buildings: append([]string(nil), city.Buildings...)})
		}
		s.Countries = append(s.Countries, country)
	}
	for _, st := range f.SpaceTypes {
		s.SpaceTypes = append(s.SpaceTypes, simulation.SpaceType{
			Name:               st.Name,
			Capacity:           st.Capacity,
			BookingProbability: st.BookingProbability,
		})
	}
	return s, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if name == strings.ToLower(day.String()) {
			return day, true
		}
	}
	return 0, false
}
