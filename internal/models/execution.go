package models

import (
	"time"
)

type ExecutionOutcome string

const (
	// OutcomeFiring is the claim state: an executor owns the occurrence and
	// the activation call has not finished yet.
	OutcomeFiring    ExecutionOutcome = "FIRING"
	OutcomeCommitted ExecutionOutcome = "COMMITTED"
	OutcomeFailed    ExecutionOutcome = "FAILED"
)

// Execution is one ledger fact: schedule X's occurrence on date Y was claimed
// and finished with some outcome. The composite unique index on
// (schedule_id, occurrence_date) is the storage-enforced at-most-once guard —
// inserting the FIRING row is the claim, and a duplicate-key error means
// another executor got there first.
type Execution struct {
	ID             uint             `json:"id" gorm:"primarykey"`
	ScheduleID     uint             `json:"schedule_id" gorm:"not null;uniqueIndex:idx_schedule_occurrence"`
	OccurrenceDate time.Time        `json:"occurrence_date" gorm:"not null;uniqueIndex:idx_schedule_occurrence"`
	ExecutedAt     time.Time        `json:"executed_at"`
	Outcome        ExecutionOutcome `json:"outcome" gorm:"not null"`
	Attempts       int              `json:"attempts" gorm:"default:0"`
	Error          string           `json:"error,omitempty"`
	ClaimedBy      string           `json:"claimed_by"` // executor instance that owns the claim
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
