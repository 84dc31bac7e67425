package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/workspace-analytics/internal/persistence"
)

func TestErrorMapper_MapError(t *testing.T) {
	mapper := NewErrorMapper()
	tests := []struct {
		in   error
		want error
	}{
		{errors.New("constraint failed: UNIQUE constraint failed: employees.employee_id (1555)"), persistence.ErrDuplicate},
		{errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), persistence.ErrForeignKey},
		{errors.New("constraint failed: CHECK constraint failed: booking_status (275)"), persistence.ErrConstraintViolation},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), persistence.ErrBusy},
		{fmt.Errorf("wrapped: %w", persistence.ErrCountMismatch), persistence.ErrCountMismatch},
	}
	for _, tt := range tests {
		if got := mapper.MapError(tt.in); !errors.Is(got, tt.want) {
			t.Errorf("MapError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if mapper.MapError(nil) != nil {
		t.Error("MapError(nil) should be nil")
	}
}

func TestRetryHelper_WithRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("retries busy errors until success", func(t *testing.T) {
		calls := 0
		err := NewRetryHelper(cfg).WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("expected success after 3 calls, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("gives up after budget", func(t *testing.T) {
		calls := 0
		err := NewRetryHelper(cfg).WithRetry(context.Background(), func() error {
			calls++
			return errors.New("database is locked")
		})
		if !errors.Is(err, persistence.ErrBusy) || calls != 3 {
			t.Fatalf("expected ErrBusy after 3 calls, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := NewRetryHelper(cfg).WithRetry(context.Background(), func() error {
			calls++
			return errors.New("UNIQUE constraint failed")
		})
		if !errors.Is(err, persistence.ErrDuplicate) || calls != 1 {
			t.Fatalf("expected single ErrDuplicate attempt, got err=%v calls=%d", err, calls)
		}
	})
}
