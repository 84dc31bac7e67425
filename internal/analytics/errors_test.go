package analytics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	if nilErr.HasErrors() {
		t.Fatalf("nil validation error should report no errors")
	}

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatalf("empty validation error should report no errors")
	}
	vErr.Add("to", "invalid date")
	vErr.Add("from", "invalid date")
	vErr.Add("from", "second message")

	if !vErr.HasErrors() {
		t.Fatalf("expected errors to be recorded")
	}
	if got := vErr.FieldErrors["from"]; got != "invalid date" {
		t.Fatalf("expected first message to win, got %q", got)
	}
	if got, want := vErr.Error(), "validation failed: from, to"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "no data", err: fmt.Errorf("wrap: %w", ErrNoData), want: "no_data"},
		{name: "validation", err: fmt.Errorf("wrap: %w", &ValidationError{}), want: "validation"},
		{name: "other", err: errors.New("boom"), want: "unexpected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestServiceLogCarriesFilterDimensions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svc, err := NewServiceWithLogger(newStubRepo(), time.Minute, time.Now, slog.New(slog.NewJSONHandler(&buf, nil)))
	if err != nil {
		t.Fatalf("NewServiceWithLogger failed: %v", err)
	}

	filter := Filter{
		From:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		Country: "Japan",
	}
	svc.log(context.Background(), "Summary", filter, "granularity", "weekly").Info("probe")

	out := buf.String()
	for _, want := range []string{`"service":"AnalyticsService"`, `"operation":"Summary"`, `"from":"2025-03-03"`, `"country":"Japan"`, `"granularity":"weekly"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	for _, unwanted := range []string{`"to"`, `"city"`, `"building"`} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("unexpected %s in %s", unwanted, out)
		}
	}
}
