package analytics_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/example/workspace-analytics/internal/analytics"
	"github.com/example/workspace-analytics/internal/simulation"
	"github.com/example/workspace-analytics/internal/testfixtures"
)

const (
	tower1 = "HKG Tower 1"
	park   = "SGP Business Park"
)

func setupAnalyticsIntegrationTest(t *testing.T) (*analytics.Service, *testfixtures.SQLiteHarness) {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	svc, err := analytics.NewServiceWithLogger(harness.Occupancy, time.Minute, testfixtures.ReferenceTime, testfixtures.DiscardLogger())
	if err != nil {
		t.Fatalf("NewServiceWithLogger failed: %v", err)
	}
	return svc, harness
}

func TestServiceOverSQLite(t *testing.T) {
	svc, harness := setupAnalyticsIntegrationTest(t)
	ctx := context.Background()

	if _, err := svc.DateBounds(ctx); !errors.Is(err, analytics.ErrNoData) {
		t.Fatalf("expected ErrNoData on empty store, got %v", err)
	}

	sgp := testfixtures.InSpace(2, "Singapore", "Singapore", park, "Quiet Pod", 8)
	harness.Load(t, []simulation.Record{
		testfixtures.NewRecord(),
		testfixtures.NewRecord(testfixtures.ByEmployee(2, "IT"), testfixtures.AsCheckIn()),
		testfixtures.NewRecord(testfixtures.ByEmployee(3, "IT"), sgp, testfixtures.AsNoShow()),
		testfixtures.NewRecord(testfixtures.OnDay(1), testfixtures.ByEmployee(3, "IT"), sgp),
	})

	bounds, err := svc.DateBounds(ctx)
	if err != nil {
		t.Fatalf("DateBounds failed: %v", err)
	}
	if !bounds.Min.Equal(testfixtures.ReferenceDate()) || !bounds.Max.Equal(testfixtures.ReferenceDate().AddDate(0, 0, 1)) {
		t.Fatalf("unexpected bounds %+v", bounds)
	}

	summary, err := svc.Summary(ctx, analytics.Filter{})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.PeakDailyOccupancy != 2 || !summary.PeakDate.Equal(testfixtures.ReferenceDate()) {
		t.Fatalf("unexpected peak %d on %v", summary.PeakDailyOccupancy, summary.PeakDate)
	}
	if summary.DistinctOccupants != 3 || summary.TotalSpaces != 2 {
		t.Fatalf("unexpected distinct/spaces %d/%d", summary.DistinctOccupants, summary.TotalSpaces)
	}
	if math.Abs(summary.AverageDailyUsers-1.5) > 1e-9 || math.Abs(summary.AverageUtilizationPercent-75) > 1e-9 {
		t.Fatalf("unexpected averages %v %v", summary.AverageDailyUsers, summary.AverageUtilizationPercent)
	}
	if math.Abs(summary.NoShowRatePercent-25) > 1e-9 {
		t.Fatalf("expected 25%% no-shows, got %v", summary.NoShowRatePercent)
	}
	if math.Abs(summary.AdhocRatePercent-100.0/3) > 1e-9 {
		t.Fatalf("expected a third ad-hoc, got %v", summary.AdhocRatePercent)
	}

	hk, err := svc.Summary(ctx, analytics.Filter{Building: tower1})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if hk.TotalSpaces != 1 || hk.DistinctOccupants != 2 {
		t.Fatalf("unexpected building summary %+v", hk)
	}

	types, err := svc.SpaceTypeBookings(ctx, analytics.Filter{})
	if err != nil {
		t.Fatalf("SpaceTypeBookings failed: %v", err)
	}
	if len(types) != 2 || types[0].SpaceType != "Individual Workstation" || types[0].Bookings != 2 {
		t.Fatalf("unexpected space types %+v", types)
	}

	weekdays, err := svc.DayOfWeekOccupancy(ctx, analytics.Filter{})
	if err != nil {
		t.Fatalf("DayOfWeekOccupancy failed: %v", err)
	}
	if len(weekdays) != 2 || weekdays[0].Weekday != time.Monday || weekdays[1].Weekday != time.Tuesday {
		t.Fatalf("unexpected weekdays %+v", weekdays)
	}
}

func TestServiceOverGeneratedDataset(t *testing.T) {
	svc, harness := setupAnalyticsIntegrationTest(t)
	ctx := context.Background()

	result := testfixtures.Generate(t, testfixtures.SmallScenario(), 5)
	harness.Load(t, result.Records)

	summary, err := svc.Summary(ctx, analytics.Filter{})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	// Only booked spaces reach the store.
	if summary.TotalSpaces <= 0 || summary.TotalSpaces > len(result.Spaces) {
		t.Fatalf("expected between 1 and %d spaces, got %d", len(result.Spaces), summary.TotalSpaces)
	}
	if summary.PeakDailyOccupancy <= 0 || summary.PeakDailyOccupancy > result.Stats.AttendanceEvents {
		t.Fatalf("implausible peak %d", summary.PeakDailyOccupancy)
	}
	if summary.PeakDate.Weekday() == time.Saturday || summary.PeakDate.Weekday() == time.Sunday {
		t.Fatalf("peak fell on a weekend: %v", summary.PeakDate)
	}

	trend, err := svc.OccupancyTrend(ctx, analytics.Filter{}, analytics.GranularityMonthly)
	if err != nil {
		t.Fatalf("OccupancyTrend failed: %v", err)
	}
	if len(trend) != 1 || trend[0].Period != "2025-03" {
		t.Fatalf("expected a single March bucket, got %+v", trend)
	}
	if trend[0].Occupants != summary.DistinctOccupants {
		t.Fatalf("monthly occupancy %d should equal distinct occupants %d", trend[0].Occupants, summary.DistinctOccupants)
	}

	countries, err := svc.Countries(ctx)
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("expected both countries, got %v", countries)
	}
}
