package occurrence

import (
	"time"

	"github.com/dialsched/internal/models"
)

// Day truncates t to local midnight. All membership comparisons in this
// package operate at day granularity in a single time reference.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole number of calendar days from a to b. Both
// are re-anchored to UTC midnight so a DST transition between them cannot
// shave the difference below a whole day.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// OccursOn reports whether the schedule's rule places an occurrence on the
// given calendar date. Pure and deterministic: no I/O, no clock reads.
// Malformed records (zero scheduled_at, unknown recurrence tag) evaluate to
// false rather than erroring, so one bad row cannot break a calendar query.
func OccursOn(s *models.Schedule, date time.Time) bool {
	if s == nil || s.ScheduledAt.IsZero() {
		return false
	}

	checkDate := Day(date)
	startDate := Day(s.ScheduledAt)

	if checkDate.Before(startDate) {
		return false
	}

	var endDate *time.Time
	if s.EndAt != nil {
		d := Day(*s.EndAt)
		endDate = &d
	}

	if s.Recurring == models.RecurrenceNone || s.Recurring == "" {
		if endDate != nil {
			// Range membership: in effect every day through endAt inclusive,
			// even though it fires only once.
			return !checkDate.After(*endDate)
		}
		return checkDate.Equal(startDate)
	}

	// Recurring: endAt is a hard ceiling when present.
	if endDate != nil && checkDate.After(*endDate) {
		return false
	}

	daysDiff := daysBetween(startDate, checkDate)

	switch s.Recurring {
	case models.RecurrenceDaily:
		return daysDiff >= 0
	case models.RecurrenceWeekly:
		return daysDiff%7 == 0
	case models.RecurrenceMonthly:
		// Same day-of-month as the start; months without that day are
		// skipped, never rolled to month end.
		return checkDate.Day() == startDate.Day()
	default:
		return false
	}
}

// IsWithinWindow reports whether date falls inside [scheduled_at, end_at],
// ignoring the recurrence pattern. Without an end_at the window is unbounded
// for recurring schedules and the start day alone for one-shots.
func IsWithinWindow(s *models.Schedule, date time.Time) bool {
	if s == nil || s.ScheduledAt.IsZero() {
		return false
	}

	checkDate := Day(date)
	startDate := Day(s.ScheduledAt)

	if checkDate.Before(startDate) {
		return false
	}
	if s.EndAt != nil {
		return !checkDate.After(Day(*s.EndAt))
	}
	if s.IsRecurring() {
		return true
	}
	return checkDate.Equal(startDate)
}
