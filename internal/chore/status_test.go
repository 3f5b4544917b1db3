package chore

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestNextDue(t *testing.T) {
	due := NextDue(datePtr(2026, 1, 28), 7)
	if due == nil {
		t.Fatal("due should not be nil")
	}
	if want := date(2026, 2, 4); !due.Equal(want) {
		t.Errorf("due = %v, want %v", due, want)
	}

	if got := NextDue(nil, 7); got != nil {
		t.Errorf("missing last completed: due = %v, want nil", got)
	}
	if got := NextDue(datePtr(2026, 1, 28), 0); got != nil {
		t.Errorf("missing frequency: due = %v, want nil", got)
	}
}

func TestComputeStatus(t *testing.T) {
	today := date(2026, 3, 1)

	tests := []struct {
		name string
		last *time.Time
		freq int
		want Status
	}{
		{"no last completed", nil, 7, StatusNA},
		{"no frequency", datePtr(2026, 2, 1), 0, StatusNA},
		{"due yesterday", datePtr(2026, 2, 21), 7, StatusOverdue},
		{"long cycle overdue", datePtr(2025, 1, 1), 365, StatusOverdue},
		{"due today", datePtr(2026, 2, 22), 7, StatusDueSoon},
		{"short cycle at 14 days", datePtr(2026, 3, 1), 14, StatusDueSoon},
		{"short cycle at 15 days", datePtr(2026, 3, 1), 15, StatusCompletedRecently},
		{"30 day cycle uses short window", datePtr(2026, 2, 20), 30, StatusCompletedRecently},
		{"31 day cycle uses long window", datePtr(2026, 2, 17), 31, StatusDueSoon},
		{"long cycle at 30 days", datePtr(2026, 1, 30), 60, StatusDueSoon},
		{"long cycle at 31 days", datePtr(2026, 1, 31), 60, StatusCompletedRecently},
		{"annual just done", datePtr(2026, 3, 1), 365, StatusCompletedRecently},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStatus(tt.last, tt.freq, today); got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComputeStatusIgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	if got := ComputeStatus(datePtr(2026, 2, 22), 7, now); got != StatusDueSoon {
		t.Errorf("status = %q, want %q", got, StatusDueSoon)
	}
}

func TestDueSoonWindowByTier(t *testing.T) {
	today := date(2026, 6, 15)
	for _, freq := range []int{1, 7, 14, 30, 31, 90, 365} {
		window := 14
		if freq > 30 {
			window = 30
		}
		for offset := -3; offset <= 40; offset++ {
			last := AddDays(today, offset-freq)
			got := ComputeStatus(&last, freq, today)
			due := AddDays(last, freq)

			var want Status
			switch {
			case due.Before(today):
				want = StatusOverdue
			case !due.After(AddDays(today, window)):
				want = StatusDueSoon
			default:
				want = StatusCompletedRecently
			}
			if got != want {
				t.Errorf("freq %d, due in %d days: status = %q, want %q", freq, offset, got, want)
			}
		}
	}
}

func TestDeriveRejectsNegativeFrequency(t *testing.T) {
	c := model.Chore{ID: 9, Title: "Broken", FrequencyDays: -3, LastCompleted: datePtr(2026, 1, 1)}
	_, err := Derive(c, date(2026, 1, 2))
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("err = %v, want ErrCorruptRecord", err)
	}

	_, err = DeriveAll([]model.Chore{{ID: 1, FrequencyDays: 7}, c}, date(2026, 1, 2))
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("DeriveAll err = %v, want ErrCorruptRecord", err)
	}
}

func TestFixedClock(t *testing.T) {
	clock := FixedClock(time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC))
	if got, want := clock.Today(), date(2026, 4, 2); !got.Equal(want) {
		t.Errorf("today = %v, want %v", got, want)
	}
}

func TestZoneClockUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	clock := NewClock(loc)
	clock.now = func() time.Time { return time.Date(2026, 4, 2, 20, 0, 0, 0, time.UTC) }

	if got, want := clock.Today(), date(2026, 4, 3); !got.Equal(want) {
		t.Errorf("today = %v, want %v", got, want)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2026-02-28 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !d.Equal(date(2026, 2, 28)) {
		t.Errorf("date = %v", d)
	}
	if _, err := ParseDate("02/28/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if got := FormatDate(nil); got != "" {
		t.Errorf("FormatDate(nil) = %q", got)
	}
}
