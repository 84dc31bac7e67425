package persistence

import (
	"context"

	"github.com/example/workspace-analytics/internal/simulation"
)

// DatasetRepository replaces and reads back the normalized dataset.
type DatasetRepository interface {
	ReplaceDataset(ctx context.Context, req LoadRequest) (LoadRun, error)
	JoinedRecords(ctx context.Context) ([]simulation.Record, error)
	LatestLoadRun(ctx context.Context) (LoadRun, error)
}

// Period bucket formats understood by OccupancyByPeriod.
const (
	PeriodDaily   = "%Y-%m-%d"
	PeriodWeekly  = "%Y-%W"
	PeriodMonthly = "%Y-%m"
)

// OccupancyRepository exposes the read-only aggregate queries.
type OccupancyRepository interface {
	DateBounds(ctx context.Context) (DateRange, error)
	Countries(ctx context.Context) ([]string, error)
	Cities(ctx context.Context, country string) ([]string, error)
	Buildings(ctx context.Context, city string) ([]string, error)
	OccupancyByPeriod(ctx context.Context, filter OccupancyFilter, format string) ([]PeriodCount, error)
	DistinctOccupants(ctx context.Context, filter OccupancyFilter) (int, error)
	CountSpaces(ctx context.Context, filter OccupancyFilter) (int, error)
	StatusBreakdown(ctx context.Context, filter OccupancyFilter) (StatusCounts, error)
	SpaceTypeCounts(ctx context.Context, filter OccupancyFilter) ([]CategoryCount, error)
}
