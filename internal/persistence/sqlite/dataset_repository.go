package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/persistence"
	"github.com/example/workspace-analytics/internal/simulation"
)

// DatasetRepository implements persistence.DatasetRepository.
type DatasetRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

// NewDatasetRepository builds a repository. newID and now default to empty
// IDs and time.Now when nil.
func NewDatasetRepository(pool *ConnectionPool, newID func() string, now func() time.Time, logger *slog.Logger) *DatasetRepository {
	if newID == nil {
		newID = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		newID:  newID,
		now:    now,
		logger: logger.With("repository", "dataset"),
	}
}

// ReplaceDataset swaps the stored dataset for req.Records in one
// transaction. Existing rows are removed, employees and spaces are
// deduplicated, and the per-table counts are verified before commit.
func (r *DatasetRepository) ReplaceDataset(ctx context.Context, req persistence.LoadRequest) (run persistence.LoadRun, err error) {
	logger := r.logger.With("operation", "ReplaceDataset", "source", req.Source, "records", len(req.Records))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "dataset load failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "dataset loaded",
			"load_run_id", run.ID,
			"employees", run.Employees,
			"spaces", run.Spaces,
			"bookings", run.Bookings,
		)
	}()

	employees, spaces, bookings, err := persistence.Normalize(req.Records)
	if err != nil {
		return persistence.LoadRun{}, err
	}

	run = persistence.LoadRun{
		ID:        r.newID(),
		Source:    req.Source,
		Checksum:  req.Checksum,
		Employees: len(employees),
		Spaces:    len(spaces),
		Bookings:  len(bookings),
		LoadedAt:  r.now().UTC(),
	}

	err = r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := r.clear(ctx, tx); err != nil {
				return err
			}
			if err := r.insertEmployees(ctx, tx, employees); err != nil {
				return err
			}
			if err := r.insertSpaces(ctx, tx, spaces); err != nil {
				return err
			}
			if err := r.insertBookings(ctx, tx, bookings); err != nil {
				return err
			}
			if err := r.insertLoadRun(ctx, tx, run); err != nil {
				return err
			}
			return verifyCounts(ctx, tx, run)
		})
	})
	if err != nil {
		return persistence.LoadRun{}, err
	}
	return run, nil
}

func (r *DatasetRepository) clear(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		"DELETE FROM bookings",
		"DELETE FROM spaces",
		"DELETE FROM employees",
		"DELETE FROM sqlite_sequence WHERE name = 'bookings'",
	} {
		if _, err := r.helper.ExecTx(ctx, tx, stmt); err != nil {
			return r.mapper.MapError(fmt.Errorf("clear dataset: %w", err))
		}
	}
	return nil
}

func (r *DatasetRepository) insertEmployees(ctx context.Context, tx *sql.Tx, employees []persistence.Employee) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO employees (employee_id, department) VALUES (?, ?)")
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer stmt.Close()

	for _, emp := range employees {
		if _, err := stmt.ExecContext(ctx, emp.ID, emp.Department); err != nil {
			return r.mapper.MapError(fmt.Errorf("insert employee %d: %w", emp.ID, err))
		}
	}
	return nil
}

func (r *DatasetRepository) insertSpaces(ctx context.Context, tx *sql.Tx, spaces []persistence.Space) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO spaces (space_id, region, country, city, building, floor, space_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer stmt.Close()

	for _, sp := range spaces {
		if _, err := stmt.ExecContext(ctx, sp.ID, sp.Region, sp.Country, sp.City, sp.Building, sp.Floor, sp.SpaceType); err != nil {
			return r.mapper.MapError(fmt.Errorf("insert space %d: %w", sp.ID, err))
		}
	}
	return nil
}

func (r *DatasetRepository) insertBookings(ctx context.Context, tx *sql.Tx, bookings []persistence.Booking) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bookings (date, time, employee_id, space_id, activity_type, booking_status)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer stmt.Close()

	for i, b := range bookings {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := stmt.ExecContext(ctx,
			b.Date.Format(calendar.DateLayout),
			b.Time.String(),
			b.EmployeeID,
			b.SpaceID,
			b.ActivityType,
			b.BookingStatus,
		)
		if err != nil {
			return r.mapper.MapError(fmt.Errorf("insert booking %d: %w", i+1, err))
		}
	}
	return nil
}

// loadedAtLayout keeps every stored timestamp the same width.
const loadedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (r *DatasetRepository) insertLoadRun(ctx context.Context, tx *sql.Tx, run persistence.LoadRun) error {
	_, err := r.helper.ExecTx(ctx, tx, `
		INSERT INTO load_runs (id, source, checksum, employees, spaces, bookings, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Checksum, run.Employees, run.Spaces, run.Bookings,
		run.LoadedAt.UTC().Format(loadedAtLayout),
	)
	if err != nil {
		return r.mapper.MapError(fmt.Errorf("insert load run: %w", err))
	}
	return nil
}

func verifyCounts(ctx context.Context, tx *sql.Tx, run persistence.LoadRun) error {
	checks := []struct {
		table string
		want  int
	}{
		{"employees", run.Employees},
		{"spaces", run.Spaces},
		{"bookings", run.Bookings},
	}
	for _, check := range checks {
		var got int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+check.table).Scan(&got); err != nil {
			return fmt.Errorf("count %s: %w", check.table, err)
		}
		if got != check.want {
			return fmt.Errorf("%w: %s has %d rows, expected %d", persistence.ErrCountMismatch, check.table, got, check.want)
		}
	}
	return nil
}

// JoinedRecords re-joins bookings with employees and spaces in booking order.
func (r *DatasetRepository) JoinedRecords(ctx context.Context) ([]simulation.Record, error) {
	const query = `
		SELECT b.date, b.time, b.employee_id, e.department, b.activity_type, b.space_id,
		       b.booking_status, s.region, s.country, s.city, s.building, s.floor, s.space_type
		FROM bookings b
		JOIN employees e ON e.employee_id = b.employee_id
		JOIN spaces s ON s.space_id = b.space_id
		ORDER BY b.booking_id`

	var records []simulation.Record
	err := r.retry.WithRetry(ctx, func() error {
		records = records[:0]
		rows, err := r.helper.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec        simulation.Record
				date, tod string
			)
			if err := rows.Scan(&date, &tod, &rec.EmployeeID, &rec.Department, &rec.ActivityType, &rec.SpaceID,
				&rec.BookingStatus, &rec.Region, &rec.Country, &rec.City, &rec.Building, &rec.Floor, &rec.SpaceType); err != nil {
				return err
			}
			if rec.Date, err = parseDate(date); err != nil {
				return err
			}
			if rec.Time, err = simulation.ParseTimeOfDay(tod); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LatestLoadRun returns the most recent load or persistence.ErrNotFound.
func (r *DatasetRepository) LatestLoadRun(ctx context.Context) (persistence.LoadRun, error) {
	const query = `
		SELECT id, source, checksum, employees, spaces, bookings, loaded_at
		FROM load_runs
		ORDER BY rowid DESC
		LIMIT 1`

	var (
		run      persistence.LoadRun
		loadedAt string
	)
	err := r.helper.QueryRow(ctx, query).Scan(&run.ID, &run.Source, &run.Checksum, &run.Employees, &run.Spaces, &run.Bookings, &loadedAt)
	if err != nil {
		return persistence.LoadRun{}, r.mapper.MapError(err)
	}
	if run.LoadedAt, err = time.Parse(time.RFC3339Nano, loadedAt); err != nil {
		return persistence.LoadRun{}, fmt.Errorf("parse loaded_at: %w", err)
	}
	return run, nil
}

var dates = calendar.NewEngine(time.UTC)

func parseDate(value string) (time.Time, error) {
	t, err := dates.Parse(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", value, err)
	}
	return t, nil
}
