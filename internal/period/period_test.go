package period

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name      string
		wantStart string
		wantEnd   string
	}{
		{"this_month", "2024-03-01", "2024-03-31"},
		{"last_month", "2024-02-01", "2024-02-29"},
		{"this_year", "2024-01-01", "2024-03-15"},
		{"ytd", "2024-01-01", "2024-03-15"},
		{"last_year", "2023-01-01", "2023-12-31"},
		{"last_7_days", "2024-03-08", "2024-03-15"},
		{"last_30_days", "2024-02-14", "2024-03-15"},
		{"last_90_days", "2023-12-16", "2024-03-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.name, now)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.name, err)
			}
			if r.Start.String() != tt.wantStart || r.End.String() != tt.wantEnd {
				t.Errorf("Parse(%q) = %s..%s, want %s..%s", tt.name, r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParse_LastMonthInJanuary(t *testing.T) {
	r, err := Parse("last_month", time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.String() != "2023-12-01" || r.End.String() != "2023-12-31" {
		t.Errorf("Parse(last_month) = %s..%s", r.Start, r.End)
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("next_week", time.Now()); !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("error = %v, want ErrUnknownPeriod", err)
	}
}

func TestMonthRange(t *testing.T) {
	r, err := MonthRange(2023, time.February)
	if err != nil {
		t.Fatal(err)
	}
	if r.End.Day != 28 {
		t.Errorf("End = %s, want 2023-02-28", r.End)
	}
	for _, m := range []time.Month{0, 13} {
		if _, err := MonthRange(2024, m); err == nil {
			t.Errorf("MonthRange(2024, %d) = nil error", m)
		}
	}
}
