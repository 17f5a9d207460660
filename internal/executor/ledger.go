package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dialsched/internal/models"
	"gorm.io/gorm"
)

// ErrClaimConflict means another executor already owns the occurrence. This
// is the expected path when redundant executors share one store, not an error
// condition.
var ErrClaimConflict = errors.New("occurrence already claimed")

// Ledger records which (schedule, occurrence-date) pairs have been executed.
// The composite unique index on the executions table makes the FIRING insert
// an atomic insert-if-absent, so the claim holds across processes, not just
// goroutines.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Claim reserves the occurrence for one executor by inserting the FIRING
// fact. Returns ErrClaimConflict when the fact already exists.
func (l *Ledger) Claim(scheduleID uint, occurrenceDate time.Time, claimedBy string) (*models.Execution, error) {
	exec := &models.Execution{
		ScheduleID:     scheduleID,
		OccurrenceDate: occurrenceDate,
		Outcome:        models.OutcomeFiring,
		ClaimedBy:      claimedBy,
	}
	if err := l.db.Create(exec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrClaimConflict
		}
		return nil, fmt.Errorf("failed to claim occurrence: %v", err)
	}
	return exec, nil
}

// Finalize writes the terminal outcome of a claimed occurrence.
func (l *Ledger) Finalize(exec *models.Execution, outcome models.ExecutionOutcome, attempts int, execErr error) error {
	exec.Outcome = outcome
	exec.Attempts = attempts
	exec.ExecutedAt = time.Now()
	if execErr != nil {
		exec.Error = execErr.Error()
	}
	if err := l.db.Save(exec).Error; err != nil {
		return fmt.Errorf("failed to record execution outcome: %v", err)
	}
	return nil
}

// HasFact reports whether any fact exists for the occurrence, regardless of
// outcome. Used as a cheap pre-check before attempting a claim.
func (l *Ledger) HasFact(scheduleID uint, occurrenceDate time.Time) (bool, error) {
	var count int64
	err := l.db.Model(&models.Execution{}).
		Where("schedule_id = ? AND occurrence_date = ?", scheduleID, occurrenceDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query execution ledger: %v", err)
	}
	return count > 0, nil
}

// ListBySchedule returns the execution history of one schedule, newest first.
func (l *Ledger) ListBySchedule(scheduleID uint) ([]models.Execution, error) {
	var execs []models.Execution
	err := l.db.Where("schedule_id = ?", scheduleID).
		Order("occurrence_date desc").
		Find(&execs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %v", err)
	}
	return execs, nil
}

// ReapStale finalizes FIRING facts older than maxAge as FAILED. A fact stuck
// in FIRING means an executor died mid-flight; the occurrence is not re-fired
// (the claim stands) but the failure must surface instead of dangling.
func (l *Ledger) ReapStale(maxAge time.Duration) ([]models.Execution, error) {
	cutoff := time.Now().Add(-maxAge)

	var stale []models.Execution
	err := l.db.Where("outcome = ? AND created_at < ?", models.OutcomeFiring, cutoff).
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stale claims: %v", err)
	}

	for i := range stale {
		stale[i].Outcome = models.OutcomeFailed
		stale[i].Error = "executor lost the claim mid-flight"
		stale[i].ExecutedAt = time.Now()
		if err := l.db.Save(&stale[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to reap stale claim: %v", err)
		}
	}
	return stale, nil
}

// isUniqueViolation matches the duplicate-key error across gorm versions and
// the raw sqlite error text.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
