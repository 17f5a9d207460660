package models

import (
	"time"

	"gorm.io/gorm"
)

type ScheduleType string

const (
	ScheduleTypeList     ScheduleType = "list"
	ScheduleTypeCampaign ScheduleType = "campaign"
)

type Action string

const (
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
)

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Schedule is an operator-authored rule for activating or deactivating a
// dialing campaign or contact list at a future instant, optionally recurring.
// The engine only reads operator fields; Executed is the single engine-owned
// flag and is meaningful for non-recurring schedules only (per-occurrence
// history lives in Execution).
type Schedule struct {
	gorm.Model
	ScheduleType ScheduleType `json:"schedule_type" gorm:"not null;index"`
	TargetID     string       `json:"target_id" gorm:"not null;index"`
	TargetName   string       `json:"target_name"` // display cache, not authoritative
	Action       Action       `json:"action" gorm:"not null"`
	ScheduledAt  time.Time    `json:"scheduled_at" gorm:"not null"`
	EndAt        *time.Time   `json:"end_at,omitempty"`
	Recurring Recurrence `json:"recurring" gorm:"not null;default:none"`

	// Executed is a convenience projection for one-shot schedules: true once
	// their single occurrence committed. It never flips for recurring
	// schedules; callers wanting the state of the latest occurrence read the
	// Execution ledger (surfaced as LastOutcome in the upcoming view).
	Executed bool `json:"executed" gorm:"default:false"`
}

// IsRecurring reports whether the schedule generates more than one occurrence.
func (s *Schedule) IsRecurring() bool {
	return s.Recurring == RecurrenceDaily || s.Recurring == RecurrenceWeekly || s.Recurring == RecurrenceMonthly
}
