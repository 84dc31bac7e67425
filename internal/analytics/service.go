package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/logging"
	"github.com/example/workspace-analytics/internal/persistence"
)

const (
	// DefaultCacheTTL bounds how long an aggregate result is reused.
	DefaultCacheTTL = 10 * time.Minute
	// DefaultWindowDays is the span shown when a filter carries no dates.
	DefaultWindowDays = 30

	defaultCacheEntries = 512
	serviceName         = "AnalyticsService"
)

// Granularity selects the bucket size of an occupancy trend.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// ParseGranularity accepts the three granularity names; empty means daily.
func ParseGranularity(value string) (Granularity, error) {
	switch Granularity(value) {
	case "", GranularityDaily:
		return GranularityDaily, nil
	case GranularityWeekly:
		return GranularityWeekly, nil
	case GranularityMonthly:
		return GranularityMonthly, nil
	}
	vErr := &ValidationError{}
	vErr.Add("granularity", "must be one of daily, weekly, monthly")
	return "", vErr
}

func (g Granularity) format() string {
	switch g {
	case GranularityWeekly:
		return persistence.PeriodWeekly
	case GranularityMonthly:
		return persistence.PeriodMonthly
	default:
		return persistence.PeriodDaily
	}
}

// Filter narrows every aggregate query. Zero dates are resolved against the
// stored date bounds. The narrowest non-empty location field applies.
type Filter struct {
	From     time.Time
	To       time.Time
	Country  string
	City     string
	Building string
}

func (f Filter) occupancy() persistence.OccupancyFilter {
	return persistence.OccupancyFilter{
		From:     f.From,
		To:       f.To,
		Country:  f.Country,
		City:     f.City,
		Building: f.Building,
	}
}

// DateBounds is the earliest and latest stored booking date.
type DateBounds struct {
	Min time.Time
	Max time.Time
}

// Summary holds the headline metrics for a filter.
type Summary struct {
	Filter                    Filter
	PeakDailyOccupancy        int
	PeakDate                  time.Time
	DistinctOccupants         int
	TotalSpaces               int
	AverageDailyUsers         float64
	AverageUtilizationPercent float64
	NoShowRatePercent         float64
	AdhocRatePercent          float64
}

// TrendPoint is the distinct confirmed occupancy of one period.
type TrendPoint struct {
	Period    string
	Occupants int
}

// WeekdayOccupancy is the mean daily occupancy for one weekday.
type WeekdayOccupancy struct {
	Weekday          time.Weekday
	AverageOccupancy float64
	Days             int
}

// SpaceTypeCount is the number of bookings made against a space type.
type SpaceTypeCount struct {
	SpaceType string
	Bookings  int
}

// Service answers the dashboard queries over the normalized store.
type Service struct {
	repo   persistence.OccupancyRepository
	cache  *queryCache
	logger *slog.Logger
}

// NewService constructs a Service with the default logger.
func NewService(repo persistence.OccupancyRepository, cacheTTL time.Duration, now func() time.Time) (*Service, error) {
	return NewServiceWithLogger(repo, cacheTTL, now, nil)
}

// NewServiceWithLogger constructs a Service. A zero TTL selects DefaultCacheTTL.
func NewServiceWithLogger(repo persistence.OccupancyRepository, cacheTTL time.Duration, now func() time.Time, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("analytics: occupancy repository is required")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		repo:   repo,
		cache:  newQueryCache(cacheTTL, defaultCacheEntries, now),
		logger: logging.OrDefault(logger),
	}, nil
}

// InvalidateCache drops every cached result, e.g. after a new dataset load.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}

// log scopes the request logger to operation and the dimensions set on filter.
func (s *Service) log(ctx context.Context, operation string, filter Filter, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, len(attrs)+10)
	if !filter.From.IsZero() {
		pairs = append(pairs, "from", formatDate(filter.From))
	}
	if !filter.To.IsZero() {
		pairs = append(pairs, "to", formatDate(filter.To))
	}
	for _, dim := range []struct{ key, value string }{
		{"country", filter.Country},
		{"city", filter.City},
		{"building", filter.Building},
	} {
		if dim.value != "" {
			pairs = append(pairs, dim.key, dim.value)
		}
	}
	pairs = append(pairs, attrs...)
	return logging.Scoped(ctx, s.logger, "service", serviceName, operation, pairs...)
}

// DateBounds returns the stored booking date range, or ErrNoData.
func (s *Service) DateBounds(ctx context.Context) (bounds DateBounds, err error) {
	logger := s.log(ctx, "DateBounds", Filter{})
	defer func() {
		if err != nil && !errors.Is(err, ErrNoData) {
			logger.ErrorContext(ctx, "failed to load date bounds", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	bounds, _, err = cached(s.cache, "bounds", identity[DateBounds], func() (DateBounds, error) {
		r, err := s.repo.DateBounds(ctx)
		if errors.Is(err, persistence.ErrNotFound) {
			return DateBounds{}, ErrNoData
		}
		if err != nil {
			return DateBounds{}, fmt.Errorf("load date bounds: %w", err)
		}
		return DateBounds{Min: r.Min, Max: r.Max}, nil
	})
	return bounds, err
}

// Countries lists the countries that have spaces.
func (s *Service) Countries(ctx context.Context) ([]string, error) {
	return s.locations(ctx, "Countries", "countries", "", s.repo.Countries)
}

// Cities lists the cities of country, or every city when country is empty.
func (s *Service) Cities(ctx context.Context, country string) ([]string, error) {
	return s.locations(ctx, "Cities", "cities", country, func(ctx context.Context) ([]string, error) {
		return s.repo.Cities(ctx, country)
	})
}

// Buildings lists the buildings of city, or every building when city is empty.
func (s *Service) Buildings(ctx context.Context, city string) ([]string, error) {
	return s.locations(ctx, "Buildings", "buildings", city, func(ctx context.Context) ([]string, error) {
		return s.repo.Buildings(ctx, city)
	})
}

func (s *Service) locations(ctx context.Context, operation, key, parent string, load func(context.Context) ([]string, error)) (names []string, err error) {
	logger := s.log(ctx, operation, Filter{}, "parent", parent)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list locations", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	names, _, err = cached(s.cache, key+"|"+parent, slices.Clone[[]string], func() ([]string, error) {
		values, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", key, err)
		}
		return values, nil
	})
	return names, err
}

// ResolveFilter validates filter and fills missing dates. Without dates the
// window covers the DefaultWindowDays days before the latest booking date,
// clamped to the earliest one.
func (s *Service) ResolveFilter(ctx context.Context, filter Filter) (Filter, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() {
		return filter, validateRange(filter)
	}

	bounds, err := s.DateBounds(ctx)
	if err != nil {
		return Filter{}, err
	}

	switch {
	case filter.From.IsZero() && filter.To.IsZero():
		filter.To = bounds.Max
		filter.From = bounds.Max.AddDate(0, 0, -DefaultWindowDays)
		if filter.From.Before(bounds.Min) {
			filter.From = bounds.Min
		}
	case filter.From.IsZero():
		filter.From = bounds.Min
	default:
		filter.To = bounds.Max
	}
	return filter, validateRange(filter)
}

func validateRange(filter Filter) error {
	if filter.From.After(filter.To) {
		vErr := &ValidationError{}
		vErr.Add("from", "must not be after to")
		return vErr
	}
	return nil
}

// Summary computes the headline metrics for filter.
func (s *Service) Summary(ctx context.Context, filter Filter) (summary Summary, err error) {
	logger := s.log(ctx, "Summary", filter)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute summary", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	filter, err = s.ResolveFilter(ctx, filter)
	if err != nil {
		return Summary{}, err
	}

	summary, hit, err := cached(s.cache, buildCacheKey("summary", filter), identity[Summary], func() (Summary, error) {
		return s.computeSummary(ctx, filter)
	})
	if err != nil {
		return Summary{}, err
	}
	logger.DebugContext(ctx, "summary computed", "cache_hit", hit, "peak", summary.PeakDailyOccupancy)
	return summary, nil
}

func (s *Service) computeSummary(ctx context.Context, filter Filter) (Summary, error) {
	of := filter.occupancy()

	daily, err := s.repo.OccupancyByPeriod(ctx, of, persistence.PeriodDaily)
	if err != nil {
		return Summary{}, fmt.Errorf("daily occupancy: %w", err)
	}
	distinct, err := s.repo.DistinctOccupants(ctx, of)
	if err != nil {
		return Summary{}, fmt.Errorf("distinct occupants: %w", err)
	}
	spaces, err := s.repo.CountSpaces(ctx, of)
	if err != nil {
		return Summary{}, fmt.Errorf("count spaces: %w", err)
	}
	status, err := s.repo.StatusBreakdown(ctx, of)
	if err != nil {
		return Summary{}, fmt.Errorf("status breakdown: %w", err)
	}

	summary := Summary{
		Filter:            filter,
		DistinctOccupants: distinct,
		TotalSpaces:       spaces,
	}

	total := 0
	for _, pc := range daily {
		total += pc.Occupants
		if pc.Occupants > summary.PeakDailyOccupancy {
			date, err := dates.Parse(pc.Period)
			if err != nil {
				return Summary{}, fmt.Errorf("daily occupancy period %q: %w", pc.Period, err)
			}
			summary.PeakDailyOccupancy = pc.Occupants
			summary.PeakDate = date
		}
	}
	if len(daily) > 0 {
		summary.AverageDailyUsers = float64(total) / float64(len(daily))
	}
	summary.AverageUtilizationPercent = percent(summary.AverageDailyUsers, float64(spaces))
	summary.NoShowRatePercent = percent(float64(status.NoShows), float64(status.Total))
	summary.AdhocRatePercent = percent(float64(status.ConfirmedAdhoc), float64(status.Confirmed))
	return summary, nil
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// OccupancyTrend returns distinct confirmed occupancy per period bucket.
func (s *Service) OccupancyTrend(ctx context.Context, filter Filter, granularity Granularity) (points []TrendPoint, err error) {
	logger := s.log(ctx, "OccupancyTrend", filter, "granularity", string(granularity))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute occupancy trend", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if granularity, err = ParseGranularity(string(granularity)); err != nil {
		return nil, err
	}
	if filter, err = s.ResolveFilter(ctx, filter); err != nil {
		return nil, err
	}

	points, _, err = cached(s.cache, buildCacheKey("trend", filter, string(granularity)), slices.Clone[[]TrendPoint], func() ([]TrendPoint, error) {
		counts, err := s.repo.OccupancyByPeriod(ctx, filter.occupancy(), granularity.format())
		if err != nil {
			return nil, fmt.Errorf("occupancy by period: %w", err)
		}
		out := make([]TrendPoint, 0, len(counts))
		for _, pc := range counts {
			out = append(out, TrendPoint{Period: pc.Period, Occupants: pc.Occupants})
		}
		return out, nil
	})
	return points, err
}

// DayOfWeekOccupancy averages daily occupancy per weekday, Monday first.
// Weekdays with no bookings in range are omitted.
func (s *Service) DayOfWeekOccupancy(ctx context.Context, filter Filter) (rows []WeekdayOccupancy, err error) {
	logger := s.log(ctx, "DayOfWeekOccupancy", filter)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute weekday occupancy", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if filter, err = s.ResolveFilter(ctx, filter); err != nil {
		return nil, err
	}

	rows, _, err = cached(s.cache, buildCacheKey("weekday", filter), slices.Clone[[]WeekdayOccupancy], func() ([]WeekdayOccupancy, error) {
		daily, err := s.repo.OccupancyByPeriod(ctx, filter.occupancy(), persistence.PeriodDaily)
		if err != nil {
			return nil, fmt.Errorf("daily occupancy: %w", err)
		}

		var sums [7]int
		var days [7]int
		for _, pc := range daily {
			date, err := dates.Parse(pc.Period)
			if err != nil {
				return nil, fmt.Errorf("daily occupancy period %q: %w", pc.Period, err)
			}
			wd := date.Weekday()
			sums[wd] += pc.Occupants
			days[wd]++
		}

		out := make([]WeekdayOccupancy, 0, 7)
		for _, wd := range weekdayOrder {
			if days[wd] == 0 {
				continue
			}
			out = append(out, WeekdayOccupancy{
				Weekday:          wd,
				AverageOccupancy: float64(sums[wd]) / float64(days[wd]),
				Days:             days[wd],
			})
		}
		return out, nil
	})
	return rows, err
}

// SpaceTypeBookings counts bookings per space type, highest first.
func (s *Service) SpaceTypeBookings(ctx context.Context, filter Filter) (counts []SpaceTypeCount, err error) {
	logger := s.log(ctx, "SpaceTypeBookings", filter)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to count space type bookings", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if filter, err = s.ResolveFilter(ctx, filter); err != nil {
		return nil, err
	}

	counts, _, err = cached(s.cache, buildCacheKey("space_types", filter), slices.Clone[[]SpaceTypeCount], func() ([]SpaceTypeCount, error) {
		rows, err := s.repo.SpaceTypeCounts(ctx, filter.occupancy())
		if err != nil {
			return nil, fmt.Errorf("space type counts: %w", err)
		}
		out := make([]SpaceTypeCount, 0, len(rows))
		for _, row := range rows {
			out = append(out, SpaceTypeCount{SpaceType: row.Name, Bookings: row.Count})
		}
		return out, nil
	})
	return counts, err
}

var (
	dates = calendar.NewEngine(time.UTC)

	weekdayOrder = [...]time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
)
