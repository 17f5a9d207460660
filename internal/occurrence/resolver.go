package occurrence

import (
	"time"

	"github.com/dialsched/internal/models"
)

// nextDueHorizonDays bounds the forward scan in NextDue. Two years covers
// the longest possible gap in the supported recurrence rules (a monthly
// schedule on day 31 fires at most every other month).
const nextDueHorizonDays = 731

// FireTime returns the instant the occurrence on the given day fires:
// occurrences always fire at the original scheduled_at time-of-day,
// whatever the day.
func FireTime(s *models.Schedule, day time.Time) time.Time {
	d := Day(day)
	at := s.ScheduledAt
	return time.Date(d.Year(), d.Month(), d.Day(),
		at.Hour(), at.Minute(), at.Second(), 0, d.Location())
}

// IsDue reports whether the schedule has an occurrence whose trigger instant
// has been reached at now. The occurrence is identified by day(now); whether
// it was already executed is the ledger's concern, not this function's — a
// resolver running every minute relies on the (schedule, occurrence-date)
// claim for dedup, not on the exact timestamp.
func IsDue(s *models.Schedule, now time.Time) bool {
	if !OccursOn(s, now) {
		return false
	}
	if s.Recurring == models.RecurrenceNone && s.EndAt != nil {
		// One-shot with a visibility range: in effect every day of the
		// range, but the single execution belongs to the start date.
		if !Day(now).Equal(Day(s.ScheduledAt)) {
			return false
		}
	}
	return !now.Before(FireTime(s, now))
}

// OccurrenceDate returns the identity of the occurrence due at now: its
// calendar date. This is the dedup key together with the schedule ID.
func OccurrenceDate(now time.Time) time.Time {
	return Day(now)
}

// NextDue returns the earliest fire instant at or after now, or nil when the
// schedule has no remaining occurrence (past its end, executed one-shot, or
// nothing inside the scan horizon).
func NextDue(s *models.Schedule, now time.Time) *time.Time {
	if s == nil || s.ScheduledAt.IsZero() {
		return nil
	}
	if s.Recurring == models.RecurrenceNone && s.Executed {
		return nil
	}

	day := Day(now)
	if start := Day(s.ScheduledAt); day.Before(start) {
		day = start
	}

	for i := 0; i < nextDueHorizonDays; i++ {
		candidate := day.AddDate(0, 0, i)
		if s.EndAt != nil && candidate.After(Day(*s.EndAt)) {
			return nil
		}
		if !OccursOn(s, candidate) {
			continue
		}
		if s.Recurring == models.RecurrenceNone && s.EndAt != nil && !candidate.Equal(Day(s.ScheduledAt)) {
			// Visible but not executable; the one-shot fires on its start
			// date only.
			return nil
		}
		fire := FireTime(s, candidate)
		if !fire.Before(now) {
			return &fire
		}
	}
	return nil
}
