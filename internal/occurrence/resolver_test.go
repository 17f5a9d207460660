package occurrence

import (
	"testing"
	"time"

	"github.com/dialsched/internal/models"
)

func TestFireTimeUsesOriginalTimeOfDay(t *testing.T) {
	s := schedule(datetime(2024, time.June, 1, 14, 30), models.RecurrenceDaily, nil)

	fire := FireTime(s, date(2024, time.June, 20))
	want := datetime(2024, time.June, 20, 14, 30)
	if !fire.Equal(want) {
		t.Errorf("FireTime = %s, want %s", fire, want)
	}
}

func TestIsDue(t *testing.T) {
	s := schedule(datetime(2024, time.June, 1, 14, 30), models.RecurrenceDaily, nil)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before time of day", datetime(2024, time.June, 5, 14, 29), false},
		{"exactly at trigger", datetime(2024, time.June, 5, 14, 30), true},
		{"after trigger", datetime(2024, time.June, 5, 23, 0), true},
		{"before start date", datetime(2024, time.May, 31, 18, 0), false},
	}
	for _, tc := range cases {
		if got := IsDue(s, tc.now); got != tc.want {
			t.Errorf("%s: IsDue = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsDueRangedOneShotFiresOnStartDateOnly(t *testing.T) {
	end := date(2024, time.May, 10)
	s := schedule(datetime(2024, time.May, 1, 9, 0), models.RecurrenceNone, &end)

	if !IsDue(s, datetime(2024, time.May, 1, 9, 0)) {
		t.Error("should be due at the trigger instant on the start date")
	}
	// Visible on every day of the range, but execution belongs to day one.
	if IsDue(s, datetime(2024, time.May, 5, 12, 0)) {
		t.Error("must not be due on later days of the visibility range")
	}
}

func TestNextDueDaily(t *testing.T) {
	s := schedule(datetime(2024, time.June, 1, 10, 0), models.RecurrenceDaily, nil)

	// Before today's trigger: today is next.
	next := NextDue(s, datetime(2024, time.June, 5, 9, 0))
	if next == nil || !next.Equal(datetime(2024, time.June, 5, 10, 0)) {
		t.Fatalf("NextDue = %v, want 2024-06-05 10:00", next)
	}

	// After today's trigger: tomorrow.
	next = NextDue(s, datetime(2024, time.June, 5, 11, 0))
	if next == nil || !next.Equal(datetime(2024, time.June, 6, 10, 0)) {
		t.Fatalf("NextDue = %v, want 2024-06-06 10:00", next)
	}
}

func TestNextDueMonthlySkipsMissingDays(t *testing.T) {
	s := schedule(datetime(2024, time.January, 31, 8, 0), models.RecurrenceMonthly, nil)

	next := NextDue(s, datetime(2024, time.February, 1, 0, 0))
	if next == nil || !next.Equal(datetime(2024, time.March, 31, 8, 0)) {
		t.Fatalf("NextDue = %v, want 2024-03-31 08:00", next)
	}
}

func TestNextDueRespectsEndDate(t *testing.T) {
	end := date(2024, time.June, 10)
	s := schedule(datetime(2024, time.June, 1, 10, 0), models.RecurrenceDaily, &end)

	if next := NextDue(s, datetime(2024, time.June, 11, 0, 0)); next != nil {
		t.Errorf("NextDue past end date = %v, want nil", next)
	}
}

func TestNextDueExecutedOneShot(t *testing.T) {
	s := schedule(datetime(2024, time.June, 1, 10, 0), models.RecurrenceNone, nil)
	s.Executed = true

	if next := NextDue(s, datetime(2024, time.May, 1, 0, 0)); next != nil {
		t.Errorf("executed one-shot NextDue = %v, want nil", next)
	}
}

func TestNextDueBeforeStart(t *testing.T) {
	s := schedule(datetime(2024, time.June, 3, 10, 0), models.RecurrenceWeekly, nil)

	next := NextDue(s, datetime(2024, time.January, 1, 0, 0))
	if next == nil || !next.Equal(datetime(2024, time.June, 3, 10, 0)) {
		t.Fatalf("NextDue = %v, want first occurrence 2024-06-03 10:00", next)
	}
}
