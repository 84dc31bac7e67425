// Package dataset reads and writes the flat booking CSV exchanged between the
// generator and the loader.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/simulation"
)

// Header is the fixed column order of the dataset.
var Header = []string{
	"Date", "Time", "Employee_ID", "Department", "Activity_Type", "Space_ID",
	"Booking_Status", "Region", "Country", "City", "Building", "Floor", "Space_Type",
}

var dates = calendar.NewEngine(time.UTC)

// ErrHeaderMismatch is returned when a file does not start with Header.
var ErrHeaderMismatch = errors.New("dataset: header mismatch")

// RowError identifies the line of a malformed row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("dataset: line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Write emits the header followed by one row per record.
func Write(w io.Writer, records []simulation.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(Header))
	for i, rec := range records {
		encode(rec, row)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}

// WriteFile writes records to path. Parent directories are created and the
// file is replaced atomically through a rename.
func WriteFile(path string, records []simulation.Record) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Write(tmp, records); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync dataset: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}

// Read parses a dataset previously produced by Write.
func Read(r io.Reader) ([]simulation.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrHeaderMismatch
		}
		return nil, &RowError{Line: 1, Err: err}
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, header[i], col)
		}
	}

	var records []simulation.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &RowError{Line: pe.Line, Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		rec, err := decode(row)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) ([]simulation.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func encode(rec simulation.Record, row []string) {
	row[0] = rec.Date.Format(calendar.DateLayout)
	row[1] = rec.Time.String()
	row[2] = strconv.Itoa(rec.EmployeeID)
	row[3] = rec.Department
	row[4] = rec.ActivityType
	row[5] = strconv.Itoa(rec.SpaceID)
	row[6] = rec.BookingStatus
	row[7] = rec.Region
	row[8] = rec.Country
	row[9] = rec.City
	row[10] = rec.Building
	row[11] = strconv.Itoa(rec.Floor)
	row[12] = rec.SpaceType
}

func decode(row []string) (simulation.Record, error) {
	var rec simulation.Record
	var err error

	if rec.Date, err = dates.Parse(row[0]); err != nil {
		return rec, fmt.Errorf("Date: %w", err)
	}
	if rec.Time, err = simulation.ParseTimeOfDay(row[1]); err != nil {
		return rec, fmt.Errorf("Time: %w", err)
	}
	if rec.EmployeeID, err = strconv.Atoi(row[2]); err != nil {
		return rec, fmt.Errorf("Employee_ID: %w", err)
	}
	if rec.SpaceID, err = strconv.Atoi(row[5]); err != nil {
		return rec, fmt.Errorf("Space_ID: %w", err)
	}
	if rec.Floor, err = strconv.Atoi(row[11]); err != nil {
		return rec, fmt.Errorf("Floor: %w", err)
	}
	rec.Department = row[3]
	rec.ActivityType = row[4]
	rec.BookingStatus = row[6]
	rec.Region = row[7]
	rec.Country = row[8]
	rec.City = row[9]
	rec.Building = row[10]
	rec.SpaceType = row[12]
	return rec, nil
}
