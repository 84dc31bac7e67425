package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/persistence"
	"github.com/example/workspace-analytics/internal/simulation"
)

const bookingsJoinSpaces = " FROM bookings b JOIN spaces s ON s.space_id = b.space_id"

// OccupancyRepository implements persistence.OccupancyRepository. Every
// filter value is bound as a parameter.
type OccupancyRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewOccupancyRepository creates a new read-only repository.
func NewOccupancyRepository(pool *ConnectionPool) *OccupancyRepository {
	return &OccupancyRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// DateBounds returns the earliest and latest booking dates, or
// persistence.ErrNotFound when no bookings are stored.
func (r *OccupancyRepository) DateBounds(ctx context.Context) (persistence.DateRange, error) {
	var minDate, maxDate sql.NullString
	err := r.retry.WithRetry(ctx, func() error {
		return r.helper.QueryRow(ctx, "SELECT MIN(date), MAX(date) FROM bookings").Scan(&minDate, &maxDate)
	})
	if err != nil {
		return persistence.DateRange{}, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return persistence.DateRange{}, persistence.ErrNotFound
	}

	var bounds persistence.DateRange
	if bounds.Min, err = parseDate(minDate.String); err != nil {
		return persistence.DateRange{}, err
	}
	if bounds.Max, err = parseDate(maxDate.String); err != nil {
		return persistence.DateRange{}, err
	}
	return bounds, nil
}

// Countries lists countries that have spaces.
func (r *OccupancyRepository) Countries(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "SELECT DISTINCT country FROM spaces ORDER BY country")
}

// Cities lists cities, narrowed to a country when one is given.
func (r *OccupancyRepository) Cities(ctx context.Context, country string) ([]string, error) {
	if country == "" {
		return r.distinct(ctx, "SELECT DISTINCT city FROM spaces ORDER BY city")
	}
	return r.distinct(ctx, "SELECT DISTINCT city FROM spaces WHERE country = ? ORDER BY city", country)
}

// Buildings lists buildings, narrowed to a city when one is given.
func (r *OccupancyRepository) Buildings(ctx context.Context, city string) ([]string, error) {
	if city == "" {
		return r.distinct(ctx, "SELECT DISTINCT building FROM spaces ORDER BY building")
	}
	return r.distinct(ctx, "SELECT DISTINCT building FROM spaces WHERE city = ? ORDER BY building", city)
}

// OccupancyByPeriod counts distinct confirmed employees per strftime bucket.
func (r *OccupancyRepository) OccupancyByPeriod(ctx context.Context, filter persistence.OccupancyFilter, format string) ([]persistence.PeriodCount, error) {
	switch format {
	case persistence.PeriodDaily, persistence.PeriodWeekly, persistence.PeriodMonthly:
	default:
		return nil, fmt.Errorf("unsupported period format %q", format)
	}

	where, args := bookingWhere(filter, true)
	query := "SELECT strftime(?, b.date) AS period, COUNT(DISTINCT b.employee_id)" +
		bookingsJoinSpaces + where + " GROUP BY period ORDER BY period"
	args = append([]any{format}, args...)

	var counts []persistence.PeriodCount
	err := r.retry.WithRetry(ctx, func() error {
		counts = []persistence.PeriodCount{}
		rows, err := r.helper.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var pc persistence.PeriodCount
			if err := rows.Scan(&pc.Period, &pc.Occupants); err != nil {
				return err
			}
			counts = append(counts, pc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// DistinctOccupants counts distinct confirmed employees across the filter.
func (r *OccupancyRepository) DistinctOccupants(ctx context.Context, filter persistence.OccupancyFilter) (int, error) {
	where, args := bookingWhere(filter, true)
	return r.count(ctx, "SELECT COUNT(DISTINCT b.employee_id)"+bookingsJoinSpaces+where, args...)
}

// CountSpaces counts spaces matching the location part of the filter.
func (r *OccupancyRepository) CountSpaces(ctx context.Context, filter persistence.OccupancyFilter) (int, error) {
	cond, args := locationCondition(filter)
	query := "SELECT COUNT(*) FROM spaces s"
	if cond != "" {
		query += " WHERE " + cond
	}
	return r.count(ctx, query, args...)
}

// StatusBreakdown counts bookings of every status in the filter.
func (r *OccupancyRepository) StatusBreakdown(ctx context.Context, filter persistence.OccupancyFilter) (persistence.StatusCounts, error) {
	where, args := bookingWhere(filter, false)
	query := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN b.booking_status = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.booking_status = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.booking_status = ? AND b.activity_type = ? THEN 1 ELSE 0 END), 0)` +
		bookingsJoinSpaces + where
	args = append([]any{
		simulation.StatusNoShow,
		simulation.StatusConfirmed,
		simulation.StatusConfirmed, simulation.ActivityCheckIn,
	}, args...)

	var sc persistence.StatusCounts
	err := r.retry.WithRetry(ctx, func() error {
		return r.helper.QueryRow(ctx, query, args...).Scan(&sc.Total, &sc.NoShows, &sc.Confirmed, &sc.ConfirmedAdhoc)
	})
	if err != nil {
		return persistence.StatusCounts{}, err
	}
	return sc, nil
}

// SpaceTypeCounts counts confirmed bookings per space type, highest first.
func (r *OccupancyRepository) SpaceTypeCounts(ctx context.Context, filter persistence.OccupancyFilter) ([]persistence.CategoryCount, error) {
	where, args := bookingWhere(filter, true)
	query := "SELECT s.space_type, COUNT(*) AS n" + bookingsJoinSpaces + where +
		" GROUP BY s.space_type ORDER BY n DESC, s.space_type ASC"

	var counts []persistence.CategoryCount
	err := r.retry.WithRetry(ctx, func() error {
		counts = []persistence.CategoryCount{}
		rows, err := r.helper.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cc persistence.CategoryCount
			if err := rows.Scan(&cc.Name, &cc.Count); err != nil {
				return err
			}
			counts = append(counts, cc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *OccupancyRepository) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	var values []string
	err := r.retry.WithRetry(ctx, func() error {
		var err error
		values, err = r.helper.QueryStrings(ctx, query, args...)
		return err
	})
	return values, err
}

func (r *OccupancyRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := r.retry.WithRetry(ctx, func() error {
		return r.helper.QueryRow(ctx, query, args...).Scan(&n)
	})
	return n, err
}

// bookingWhere builds the shared WHERE clause for bookings joined to spaces.
func bookingWhere(filter persistence.OccupancyFilter, confirmedOnly bool) (string, []any) {
	var conds []string
	var args []any
	if confirmedOnly {
		conds = append(conds, "b.booking_status = ?")
		args = append(args, simulation.StatusConfirmed)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "b.date >= ?")
		args = append(args, filter.From.Format(calendar.DateLayout))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "b.date <= ?")
		args = append(args, filter.To.Format(calendar.DateLayout))
	}
	if cond, locArgs := locationCondition(filter); cond != "" {
		conds = append(conds, cond)
		args = append(args, locArgs...)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// locationCondition applies only the narrowest location given.
func locationCondition(filter persistence.OccupancyFilter) (string, []any) {
	switch {
	case filter.Building != "":
		return "s.building = ?", []any{filter.Building}
	case filter.City != "":
		return "s.city = ?", []any{filter.City}
	case filter.Country != "":
		return "s.country = ?", []any{filter.Country}
	}
	return "", nil
}
