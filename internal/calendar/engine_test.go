package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestEngine_Days(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	t.Run("includes both bounds and flags weekends", func(t *testing.T) {
		t.Parallel()

		// 2025-01-06 is a Monday.
		days, err := engine.Days(Horizon{
			Start: engine.Date(2025, time.January, 6),
			End:   engine.Date(2025, time.January, 12),
		})
		if err != nil {
			t.Fatalf("Days returned error: %v", err)
		}
		if len(days) != 7 {
			t.Fatalf("expected 7 days, got %d", len(days))
		}
		if days[0].Weekday != time.Monday || days[6].Weekday != time.Sunday {
			t.Fatalf("unexpected weekday bounds: %s..%s", days[0].Weekday, days[6].Weekday)
		}
		workdays := 0
		for _, day := range days {
			if day.Workday {
				workdays++
			}
			if day.Workday == IsWeekend(day.Weekday) {
				t.Fatalf("workday flag inconsistent for %s", day.Date.Format(DateLayout))
			}
		}
		if workdays != 5 {
			t.Fatalf("expected 5 workdays, got %d", workdays)
		}
	})

	t.Run("single day horizon", func(t *testing.T) {
		t.Parallel()

		d := engine.Date(2025, time.March, 1)
		days, err := engine.Days(Horizon{Start: d, End: d})
		if err != nil {
			t.Fatalf("Days returned error: %v", err)
		}
		if len(days) != 1 || days[0].Workday {
			t.Fatalf("expected a single weekend day, got %+v", days)
		}
	})

	t.Run("rejects inverted horizon", func(t *testing.T) {
		t.Parallel()

		_, err := engine.Days(Horizon{
			Start: engine.Date(2025, time.February, 2),
			End:   engine.Date(2025, time.February, 1),
		})
		if !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("truncates time of day", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2025, time.January, 6, 23, 30, 0, 0, time.UTC)
		end := time.Date(2025, time.January, 7, 0, 15, 0, 0, time.UTC)
		days, err := engine.Days(Horizon{Start: start, End: end})
		if err != nil {
			t.Fatalf("Days returned error: %v", err)
		}
		if len(days) != 2 {
			t.Fatalf("expected 2 days, got %d", len(days))
		}
		if days[0].Date.Hour() != 0 {
			t.Fatalf("expected midnight, got %s", days[0].Date)
		}
	})
}

func TestEngine_Parse(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	got, err := engine.Parse("2025-06-30")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !got.Equal(engine.Date(2025, time.June, 30)) {
		t.Fatalf("unexpected parse result: %s", got)
	}
	if _, err := engine.Parse("30/06/2025"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func BenchmarkEngineDays(b *testing.B) {
	engine := NewEngine(nil)
	h := Horizon{Start: engine.Date(2025, time.January, 1), End: engine.Date(2025, time.December, 31)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		days, err := engine.Days(h)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(days) != 365 {
			b.Fatalf("expected 365 days, got %d", len(days))
		}
	}
}
