package occurrence

import (
	"testing"
	"time"

	"github.com/dialsched/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func datetime(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func schedule(at time.Time, rec models.Recurrence, end *time.Time) *models.Schedule {
	return &models.Schedule{
		ScheduleType: models.ScheduleTypeCampaign,
		TargetID:     "42",
		Action:       models.ActionActivate,
		ScheduledAt:  at,
		EndAt:        end,
		Recurring:    rec,
	}
}

func TestOccursOnOneShot(t *testing.T) {
	s := schedule(datetime(2024, time.March, 1, 9, 30), models.RecurrenceNone, nil)

	cases := []struct {
		name string
		date time.Time
		want bool
	}{
		{"before start", date(2024, time.February, 29), false},
		{"on start", date(2024, time.March, 1), true},
		{"start with later time of day", datetime(2024, time.March, 1, 23, 59), true},
		{"day after", date(2024, time.March, 2), false},
		{"much later", date(2024, time.April, 1), false},
	}
	for _, tc := range cases {
		if got := OccursOn(s, tc.date); got != tc.want {
			t.Errorf("%s: OccursOn = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOccursOnOneShotWithEndDate(t *testing.T) {
	end := datetime(2024, time.May, 10, 0, 0)
	s := schedule(datetime(2024, time.May, 1, 8, 0), models.RecurrenceNone, &end)

	for d := 1; d <= 10; d++ {
		if !OccursOn(s, date(2024, time.May, d)) {
			t.Errorf("expected occurrence on 2024-05-%02d", d)
		}
	}
	if OccursOn(s, date(2024, time.April, 30)) {
		t.Error("should not occur before the start date")
	}
	if OccursOn(s, date(2024, time.May, 11)) {
		t.Error("should not occur after the end date")
	}
}

func TestOccursOnDaily(t *testing.T) {
	end := date(2024, time.June, 15)
	s := schedule(datetime(2024, time.June, 1, 12, 0), models.RecurrenceDaily, &end)

	for d := 1; d <= 15; d++ {
		if !OccursOn(s, date(2024, time.June, d)) {
			t.Errorf("expected daily occurrence on 2024-06-%02d", d)
		}
	}
	if OccursOn(s, date(2024, time.June, 16)) {
		t.Error("daily occurrence past end date")
	}
	if OccursOn(s, date(2024, time.May, 31)) {
		t.Error("daily occurrence before start date")
	}
}

func TestOccursOnWeekly(t *testing.T) {
	// 2024-06-03 is a Monday.
	s := schedule(datetime(2024, time.June, 3, 10, 0), models.RecurrenceWeekly, nil)

	mondays := []time.Time{
		date(2024, time.June, 3),
		date(2024, time.June, 10),
		date(2024, time.June, 17),
		date(2024, time.July, 1),
		date(2025, time.June, 2),
	}
	for _, d := range mondays {
		if !OccursOn(s, d) {
			t.Errorf("expected weekly occurrence on %s", d.Format("2006-01-02"))
		}
	}
	for d := 4; d <= 9; d++ {
		if OccursOn(s, date(2024, time.June, d)) {
			t.Errorf("unexpected occurrence on 2024-06-%02d", d)
		}
	}
}

func TestOccursOnMonthlySkipsShortMonths(t *testing.T) {
	s := schedule(datetime(2024, time.January, 31, 9, 0), models.RecurrenceMonthly, nil)

	occurs := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.March, 31),
		date(2024, time.May, 31),
		date(2024, time.July, 31),
		date(2024, time.August, 31),
	}
	for _, d := range occurs {
		if !OccursOn(s, d) {
			t.Errorf("expected monthly occurrence on %s", d.Format("2006-01-02"))
		}
	}

	// February and April have no day 31: the rule skips them entirely,
	// no roll-over to month end.
	for d := 1; d <= 29; d++ {
		if OccursOn(s, date(2024, time.February, d)) {
			t.Errorf("unexpected February occurrence on day %d", d)
		}
	}
	if OccursOn(s, date(2024, time.April, 30)) {
		t.Error("monthly rule must not roll over to April 30")
	}
}

func TestOccursOnMonthlyMidMonth(t *testing.T) {
	end := date(2024, time.September, 15)
	s := schedule(datetime(2024, time.March, 15, 14, 0), models.RecurrenceMonthly, &end)

	for m := time.March; m <= time.September; m++ {
		if !OccursOn(s, date(2024, m, 15)) {
			t.Errorf("expected occurrence on 2024-%02d-15", m)
		}
	}
	if OccursOn(s, date(2024, time.October, 15)) {
		t.Error("occurrence past end date")
	}
	if OccursOn(s, date(2024, time.March, 16)) {
		t.Error("occurrence on non-matching day of month")
	}
}

func TestOccursOnMalformedSchedule(t *testing.T) {
	if OccursOn(nil, date(2024, time.January, 1)) {
		t.Error("nil schedule must not occur")
	}
	if OccursOn(&models.Schedule{}, date(2024, time.January, 1)) {
		t.Error("zero scheduled_at must not occur")
	}
	s := schedule(datetime(2024, time.January, 1, 0, 0), models.Recurrence("fortnightly"), nil)
	if OccursOn(s, date(2024, time.January, 1)) {
		t.Error("unknown recurrence tag must not occur")
	}
}

func TestIsWithinWindow(t *testing.T) {
	end := date(2024, time.May, 10)
	ranged := schedule(datetime(2024, time.May, 1, 8, 0), models.RecurrenceNone, &end)
	if !IsWithinWindow(ranged, date(2024, time.May, 5)) {
		t.Error("mid-range date should be within window")
	}
	if IsWithinWindow(ranged, date(2024, time.May, 11)) {
		t.Error("date past end should be outside window")
	}

	unbounded := schedule(datetime(2024, time.May, 1, 8, 0), models.RecurrenceWeekly, nil)
	if !IsWithinWindow(unbounded, date(2030, time.January, 1)) {
		t.Error("unbounded recurring window should extend forward")
	}
	if IsWithinWindow(unbounded, date(2024, time.April, 30)) {
		t.Error("window never extends before the start date")
	}
}
