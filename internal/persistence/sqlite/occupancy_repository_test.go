package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/example/workspace-analytics/internal/persistence"
)

func setupOccupancyTest(t *testing.T) (*OccupancyRepository, func()) {
	t.Helper()
	storage, cleanup := setupStorageTest(t)
	if _, err := newTestDatasetRepository(storage).ReplaceDataset(context.Background(), persistence.LoadRequest{
		Source:  "fixture",
		Records: occupancyRecords(),
	}); err != nil {
		cleanup()
		t.Fatalf("ReplaceDataset failed: %v", err)
	}
	return storage.Occupancy(), cleanup
}

func TestOccupancyRepository_DateBounds(t *testing.T) {
	repo, cleanup := setupOccupancyTest(t)
	defer cleanup()

	bounds, err := repo.DateBounds(context.Background())
	if err != nil {
		t.Fatalf("DateBounds failed: %v", err)
	}
	if !bounds.Min.Equal(day(3)) || !bounds.Max.Equal(day(10)) {
		t.Fatalf("unexpected bounds %+v", bounds)
	}
}

func TestOccupancyRepository_DateBoundsEmpty(t *testing.T) {
	storage, cleanup := setupStorageTest(t)
	defer cleanup()

	if _, err := storage.Occupancy().DateBounds(context.Background()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOccupancyRepository_Locations(t *testing.T) {
	repo, cleanup := setupOccupancyTest(t)
	defer cleanup()
	ctx := context.Background()

	countries, err := repo.Countries(ctx)
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if !reflect.DeepEqual(countries, []string{"Hong Kong", "Singapore"}) {
		t.Fatalf("unexpected countries %v", countries)
	}

	cities, err := repo.Cities(ctx, "Singapore")
	if err != nil {
		t.Fatalf("Cities failed: %v", err)
	}
	if !reflect.DeepEqual(cities, []string{"Singapore"}) {
		t.Fatalf("unexpected cities %v", cities)
	}

	buildings, err := repo.Buildings(ctx, "Hong Kong")
	if err != nil {
		t.Fatalf("Buildings failed: %v", err)
	}
	if !reflect.DeepEqual(buildings, []string{"HKG Main Office Tower 1", "HKG Tower 2"}) {
		t.Fatalf("unexpected buildings %v", buildings)
	}

	none, err := repo.Buildings(ctx, "Atlantis")
	if err != nil {
		t.Fatalf("Buildings failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no buildings, got %v", none)
	}
}

func TestOccupancyRepository_OccupancyByPeriod(t *testing.T) {
	repo, cleanup := setupOccupancyTest(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name   string
		filter persistence.OccupancyFilter
		format string
		want   []persistence.PeriodCount
	}{
		{
			name:   "daily",
			format: persistence.PeriodDaily,
			want:   []persistence.PeriodCount{{Period: "2025-03-03", Occupants: 2}, {Period: "2025-03-04", Occupants: 1}, {Period: "2025-03-10", Occupants: 2}},
		},
		{
			name:   "weekly",
			format: persistence.PeriodWeekly,
			want:   []persistence.PeriodCount{{Period: "2025-09", Occupants: 2}, {Period: "2025-10", Occupants: 2}},
		},
		{
			name:   "monthly",
			format: persistence.PeriodMonthly,
			want:   []persistence.PeriodCount{{Period: "2025-03", Occupants: 3}},
		},
		{
			name:   "country filter",
			filter: persistence.OccupancyFilter{Country: "Hong Kong"},
			format: persistence.PeriodDaily,
			want:   []persistence.PeriodCount{{Period: "2025-03-03", Occupants: 2}, {Period: "2025-03-04", Occupants: 1}, {Period: "2025-03-10", Occupants: 1}},
		},
		{
			name:   "building wins over country",
			filter: persistence.OccupancyFilter{Country: "Singapore", Building: "HKG Tower 2"},
			format: persistence.PeriodMonthly,
			want:   []persistence.PeriodCount{{Period: "2025-03", Occupants: 2}},
		},
		{
			name:   "date range",
			filter: persistence.OccupancyFilter{From: day(4), To: day(10)},
			format: persistence.PeriodDaily,
			want:   []persistence.PeriodCount{{Period: "2025-03-04", Occupants: 1}, {Period: "2025-03-10", Occupants: 2}},
		},
		{
			name:   "empty result",
			filter: persistence.OccupancyFilter{From: day(20), To: day(25)},
			format: persistence.PeriodDaily,
			want:   []persistence.PeriodCount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.OccupancyByPeriod(ctx, tt.filter, tt.format)
			if err != nil {
				t.Fatalf("OccupancyByPeriod failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := repo.OccupancyByPeriod(ctx, persistence.OccupancyFilter{}, "%s"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestOccupancyRepository_Aggregates(t *testing.T) {
	repo, cleanup := setupOccupancyTest(t)
	defer cleanup()
	ctx := context.Background()

	distinct, err := repo.DistinctOccupants(ctx, persistence.OccupancyFilter{})
	if err != nil {
		t.Fatalf("DistinctOccupants failed: %v", err)
	}
	if distinct != 3 {
		t.Errorf("expected 3 distinct occupants, got %d", distinct)
	}

	spaces, err := repo.CountSpaces(ctx, persistence.OccupancyFilter{Country: "Hong Kong"})
	if err != nil {
		t.Fatalf("CountSpaces failed: %v", err)
	}
	if spaces != 2 {
		t.Errorf("expected 2 Hong Kong spaces, got %d", spaces)
	}

	status, err := repo.StatusBreakdown(ctx, persistence.OccupancyFilter{})
	if err != nil {
		t.Fatalf("StatusBreakdown failed: %v", err)
	}
	want := persistence.StatusCounts{Total: 6, NoShows: 1, Confirmed: 5, ConfirmedAdhoc: 2}
	if status != want {
		t.Errorf("got %+v, want %+v", status, want)
	}

	types, err := repo.SpaceTypeCounts(ctx, persistence.OccupancyFilter{})
	if err != nil {
		t.Fatalf("SpaceTypeCounts failed: %v", err)
	}
	wantTypes := []persistence.CategoryCount{
		{Name: "Individual Workstation", Count: 3},
		{Name: "Quiet Pod", Count: 1},
		{Name: "Small Meeting Room (2-4 pax)", Count: 1},
	}
	if !reflect.DeepEqual(types, wantTypes) {
		t.Errorf("got %v, want %v", types, wantTypes)
	}
}
