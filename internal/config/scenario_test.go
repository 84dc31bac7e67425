package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/workspace-analytics/internal/simulation"
)

func writeScenarioFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scenario file failed: %v", err)
	}
	return path
}

func TestLoadScenarioDefaults(t *testing.T) {
	t.Parallel()

	got, err := LoadScenario("")
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	want := simulation.DefaultScenario()

	if !got.StartDate.Equal(want.StartDate) || !got.EndDate.Equal(want.EndDate) {
		t.Fatalf("unexpected dates %v..%v", got.StartDate, got.EndDate)
	}
	if got.TotalEmployees != want.TotalEmployees || got.Region != want.Region {
		t.Fatalf("unexpected scalars %d %q", got.TotalEmployees, got.Region)
	}
	if len(got.Departments) != len(want.Departments) || got.Departments[2] != want.Departments[2] {
		t.Fatalf("unexpected departments %+v", got.Departments)
	}
	if len(got.Countries) != len(want.Countries) || got.Countries[0].Cities[0].Buildings[1] != want.Countries[0].Cities[0].Buildings[1] {
		t.Fatalf("unexpected countries %+v", got.Countries)
	}
	if got.Countries[1].CapacityPerBuilding[0] != 2800 {
		t.Fatalf("unexpected capacities %+v", got.Countries[1].CapacityPerBuilding)
	}
	if len(got.SpaceTypes) != len(want.SpaceTypes) || got.SpaceTypes[4] != want.SpaceTypes[4] {
		t.Fatalf("unexpected space types %+v", got.SpaceTypes)
	}
	for day, p := range want.WeekdayAttendance {
		if got.WeekdayAttendance[day] != p {
			t.Fatalf("attendance for %s = %v, want %v", day, got.WeekdayAttendance[day], p)
		}
	}
	if got.BookingAnchor != 9*time.Hour || got.BookingOffsetMin != -time.Hour || got.BookingOffsetMax != 8*time.Hour {
		t.Fatalf("unexpected booking window %v %v %v", got.BookingAnchor, got.BookingOffsetMin, got.BookingOffsetMax)
	}
	if got.FloorMin != 5 || got.FloorMax != 24 {
		t.Fatalf("unexpected floors %d..%d", got.FloorMin, got.FloorMax)
	}
}

func TestLoadScenarioYAMLOverrides(t *testing.T) {
	t.Parallel()

	path := writeScenarioFile(t, "scenario.yaml", `
start_date: "2025-03-03"
end_date: "2025-03-09"
total_employees: 50
departments:
  - name: Engineering
    probability: 1
countries:
  - name: Japan
    cities:
      - name: Tokyo
        buildings: ["Tokyo Tower A", "Tokyo Tower B"]
      - name: Osaka
        buildings: ["Osaka Hub"]
    capacity_per_building: [100, 50, 25]
weekday_attendance:
  Friday: 0.0
no_show_rate: 0.5
floors:
  max: 10
booking:
  anchor: 8h30m
`)

	got, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	if !got.StartDate.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date %v", got.StartDate)
	}
	if got.TotalEmployees != 50 || len(got.Departments) != 1 || got.Departments[0].Name != "Engineering" {
		t.Fatalf("unexpected population %d %+v", got.TotalEmployees, got.Departments)
	}
	if len(got.Countries) != 1 || len(got.Countries[0].Cities) != 2 || got.Countries[0].BuildingCount() != 3 {
		t.Fatalf("expected country list to be replaced, got %+v", got.Countries)
	}
	if got.WeekdayAttendance[time.Friday] != 0 {
		t.Fatalf("expected friday override, got %v", got.WeekdayAttendance[time.Friday])
	}
	if got.WeekdayAttendance[time.Wednesday] != 0.68 {
		t.Fatalf("expected untouched weekdays to keep defaults, got %v", got.WeekdayAttendance[time.Wednesday])
	}
	if got.NoShowRate != 0.5 || got.AdhocBookingRate != 0.20 {
		t.Fatalf("unexpected rates %v %v", got.NoShowRate, got.AdhocBookingRate)
	}
	if got.FloorMin != 5 || got.FloorMax != 10 {
		t.Fatalf("unexpected floors %d..%d", got.FloorMin, got.FloorMax)
	}
	if got.BookingAnchor != 8*time.Hour+30*time.Minute || got.BookingOffsetMax != 8*time.Hour {
		t.Fatalf("unexpected booking window %v %v", got.BookingAnchor, got.BookingOffsetMax)
	}
	if len(got.SpaceTypes) != len(simulation.DefaultScenario().SpaceTypes) {
		t.Fatalf("expected default space types to be kept")
	}
}

func TestLoadScenarioJSON(t *testing.T) {
	t.Parallel()

	path := writeScenarioFile(t, "scenario.json", `{
  "total_employees": 10,
  "space_types": [{"name": "Desk", "capacity": 1, "booking_probability": 1}]
}`)

	got, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if got.TotalEmployees != 10 {
		t.Fatalf("expected 10 employees, got %d", got.TotalEmployees)
	}
	if len(got.SpaceTypes) != 1 || got.SpaceTypes[0].Name != "Desk" || got.SpaceTypes[0].Capacity != 1 {
		t.Fatalf("unexpected space types %+v", got.SpaceTypes)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "validation problems are surfaced",
			file:    "bad.yaml",
			content: "total_employees: 0\nno_show_rate: 1.5\n",
			check: func(t *testing.T, err error) {
				var vErr *simulation.ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected validation error, got %v", err)
				}
				for _, field := range []string{"total_employees", "no_show_rate"} {
					if _, ok := vErr.FieldErrors[field]; !ok {
						t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
					}
				}
			},
		},
		{
			name:    "malformed date",
			file:    "date.yaml",
			content: "start_date: \"01/03/2025\"\n",
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatalf("expected date error")
				}
			},
		},
		{
			name:    "unknown weekday",
			file:    "weekday.yaml",
			content: "weekday_attendance:\n  funday: 0.5\n",
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatalf("expected weekday error")
				}
			},
		},
		{
			name:    "unsupported extension",
			file:    "scenario.txt",
			content: "total_employees = 5",
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatalf("expected unsupported format error")
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadScenario(writeScenarioFile(t, tc.file, tc.content))
			tc.check(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}
