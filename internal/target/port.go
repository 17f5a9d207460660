package target

import (
	"context"

	"github.com/dialsched/internal/models"
)

// ActivationPort is the capability the campaign/list subsystem exposes to the
// engine. Both calls are idempotent on the far side: activating an already
// active target succeeds.
type ActivationPort interface {
	Activate(ctx context.Context, scheduleType models.ScheduleType, targetID string) error
	Deactivate(ctx context.Context, scheduleType models.ScheduleType, targetID string) error
}
