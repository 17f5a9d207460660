package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/dialsched/internal/models"
	"github.com/dialsched/internal/occurrence"
	"gorm.io/gorm"
)

// maxProjectionDays caps a single calendar query. A UI asks for a month at a
// time; a year is already generous.
const maxProjectionDays = 366

// ValidationError marks operator input rejected before it reaches the engine.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ScheduleOccurrences pairs a schedule with its matching dates in a queried
// range.
type ScheduleOccurrences struct {
	Schedule models.Schedule `json:"schedule"`
	Dates    []time.Time     `json:"dates"`
}

// UpcomingSchedule is a schedule with its next trigger instant and, when an
// occurrence has already run, the most recent execution outcome, so failed
// runs stay visible to operators.
type UpcomingSchedule struct {
	Schedule    models.Schedule          `json:"schedule"`
	NextDue     time.Time                `json:"next_due"`
	LastOutcome *models.ExecutionOutcome `json:"last_outcome,omitempty"`
}

// Manager owns operator-facing CRUD over schedules plus the read-only
// calendar projections. It never touches the execution ledger; that belongs
// to the executor.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) CreateSchedule(s *models.Schedule) error {
	if err := validateSchedule(s); err != nil {
		return err
	}
	s.Executed = false
	if err := m.db.Create(s).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %v", err)
	}
	return nil
}

func (m *Manager) GetSchedule(id uint) (*models.Schedule, error) {
	var s models.Schedule
	if err := m.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Manager) ListSchedules(scheduleType *models.ScheduleType) ([]models.Schedule, error) {
	var schedules []models.Schedule
	query := m.db
	if scheduleType != nil {
		query = query.Where("schedule_type = ?", *scheduleType)
	}
	if err := query.Order("scheduled_at asc").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %v", err)
	}
	return schedules, nil
}

// UpdateSchedule replaces the operator-authored fields of an existing
// schedule. The executed flag is engine-owned and carried over from the
// stored row no matter what the caller sends.
func (m *Manager) UpdateSchedule(s *models.Schedule) error {
	if err := validateSchedule(s); err != nil {
		return err
	}

	var existing models.Schedule
	if err := m.db.First(&existing, s.ID).Error; err != nil {
		return err
	}
	s.Executed = existing.Executed
	s.CreatedAt = existing.CreatedAt

	if err := m.db.Save(s).Error; err != nil {
		return fmt.Errorf("failed to update schedule: %v", err)
	}
	return nil
}

// DeleteSchedule soft-deletes, so the executor's next schedule load no longer
// sees the row. An occurrence already claimed keeps running to completion.
func (m *Manager) DeleteSchedule(id uint) error {
	result := m.db.Delete(&models.Schedule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOccurrences returns, for every schedule occurring at least once in
// [start, end], its matching dates. One OccursOn call per (schedule, day);
// purely derived from the evaluator, no writes, and distinct from due-ness —
// a date can be visible here long before it fires.
func (m *Manager) ListOccurrences(start, end time.Time) ([]ScheduleOccurrences, error) {
	startDay := occurrence.Day(start)
	endDay := occurrence.Day(end)
	if endDay.Before(startDay) {
		return nil, invalid("end date %s is before start date %s",
			endDay.Format("2006-01-02"), startDay.Format("2006-01-02"))
	}
	if int(endDay.Sub(startDay).Hours()/24) > maxProjectionDays {
		return nil, invalid("date range exceeds %d days", maxProjectionDays)
	}

	var schedules []models.Schedule
	if err := m.db.Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %v", err)
	}

	var result []ScheduleOccurrences
	for i := range schedules {
		var dates []time.Time
		for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
			if occurrence.OccursOn(&schedules[i], d) {
				dates = append(dates, d)
			}
		}
		if len(dates) > 0 {
			result = append(result, ScheduleOccurrences{Schedule: schedules[i], Dates: dates})
		}
	}
	return result, nil
}

// ListUpcoming returns schedules ordered by next trigger instant ascending.
// Only fully-executed one-shots are excluded: a one-shot whose trigger passed
// without a commit stays listed at its (past) fire instant, and a recurring
// schedule past its end date stays listed while its latest occurrence is
// FAILED, so failed executions remain operator-visible here and not just in
// the execution history. For recurring schedules the per-occurrence outcome
// is LastOutcome; the Executed flag on the schedule itself is meaningful for
// one-shots only.
func (m *Manager) ListUpcoming(limit int) ([]UpcomingSchedule, error) {
	var schedules []models.Schedule
	if err := m.db.Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %v", err)
	}

	now := time.Now()
	var upcoming []UpcomingSchedule
	for i := range schedules {
		var lastOutcome *models.ExecutionOutcome
		var last models.Execution
		err := m.db.Where("schedule_id = ?", schedules[i].ID).
			Order("occurrence_date desc").
			First(&last).Error
		if err == nil {
			outcome := last.Outcome
			lastOutcome = &outcome
		}

		next := occurrence.NextDue(&schedules[i], now)
		if next == nil {
			next = pastDueReference(&schedules[i], lastOutcome, &last)
			if next == nil {
				continue
			}
		}

		upcoming = append(upcoming, UpcomingSchedule{
			Schedule:    schedules[i],
			NextDue:     *next,
			LastOutcome: lastOutcome,
		})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].NextDue.Before(upcoming[j].NextDue)
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

// pastDueReference keeps a schedule with no remaining occurrence visible when
// its outcome still needs operator attention. A one-shot that never committed
// is anchored at its single fire instant (whether its occurrence FAILED or
// was missed outright); a schedule whose latest occurrence FAILED is anchored
// at that occurrence. Committed history drops out.
func pastDueReference(s *models.Schedule, lastOutcome *models.ExecutionOutcome, last *models.Execution) *time.Time {
	if s.Recurring == models.RecurrenceNone && !s.Executed {
		fire := occurrence.FireTime(s, s.ScheduledAt)
		return &fire
	}
	if lastOutcome != nil && *lastOutcome == models.OutcomeFailed {
		fire := occurrence.FireTime(s, last.OccurrenceDate)
		return &fire
	}
	return nil
}

func validateSchedule(s *models.Schedule) error {
	if s.TargetID == "" {
		return invalid("target is required")
	}
	if s.ScheduledAt.IsZero() {
		return invalid("scheduled_at is required")
	}

	switch s.ScheduleType {
	case models.ScheduleTypeList, models.ScheduleTypeCampaign:
	default:
		return invalid("invalid schedule type: %s", s.ScheduleType)
	}

	switch s.Action {
	case models.ActionActivate, models.ActionDeactivate:
	default:
		return invalid("invalid action: %s", s.Action)
	}

	switch s.Recurring {
	case models.RecurrenceNone, models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
	default:
		return invalid("invalid recurrence: %s", s.Recurring)
	}

	if s.EndAt != nil && occurrence.Day(*s.EndAt).Before(occurrence.Day(s.ScheduledAt)) {
		return invalid("end date must not be before the scheduled date")
	}
	return nil
}
