package executor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dialsched/internal/models"
	"github.com/dialsched/internal/occurrence"
	"github.com/dialsched/internal/target"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

const maxConcurrentActivations = 10

type Config struct {
	Interval          time.Duration
	ActivationTimeout time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
	StaleClaimAge     time.Duration
}

// FailureNotifier surfaces occurrences that exhausted their retries.
type FailureNotifier interface {
	ExecutionFailed(schedule *models.Schedule, exec *models.Execution)
}

// Executor polls the schedule store, claims due occurrences in the ledger and
// applies each schedule's action to its target. Any number of executor
// instances may run against the same store; the ledger claim is the only
// serialization point between them.
type Executor struct {
	db         *gorm.DB
	ledger     *Ledger
	port       target.ActivationPort
	notifier   FailureNotifier
	instanceID string
	cfg        Config
	cron       *cron.Cron
	sem        *semaphore.Weighted
	wg         sync.WaitGroup
	now        func() time.Time
}

func New(db *gorm.DB, port target.ActivationPort, notifier FailureNotifier, cfg Config) *Executor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ActivationTimeout <= 0 {
		cfg.ActivationTimeout = 20 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.StaleClaimAge <= 0 {
		cfg.StaleClaimAge = 10 * time.Minute
	}

	return &Executor{
		db:         db,
		ledger:     NewLedger(db),
		port:       port,
		notifier:   notifier,
		instanceID: uuid.NewString(),
		cfg:        cfg,
		sem:        semaphore.NewWeighted(maxConcurrentActivations),
		now:        time.Now,
	}
}

// Start runs an immediate tick and then ticks on the configured interval
// until Stop is called.
func (e *Executor) Start() {
	log.Printf("Executor %s started with interval %s", e.instanceID, e.cfg.Interval)

	e.Tick()

	e.cron = cron.New()
	e.cron.Schedule(cron.Every(e.cfg.Interval), cron.FuncJob(e.Tick))
	e.cron.Start()
}

// Stop halts the tick loop and waits for in-flight activations to finish.
func (e *Executor) Stop() {
	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
	e.wg.Wait()
	log.Printf("Executor %s stopped", e.instanceID)
}

// Tick evaluates every live schedule against the current instant and
// dispatches the due occurrences. A store error aborts the whole tick; the
// next interval retries, and nothing half-claimed is left behind because the
// claim and the outcome live in the same store.
func (e *Executor) Tick() {
	now := e.now()

	if stale, err := e.ledger.ReapStale(e.cfg.StaleClaimAge); err != nil {
		log.Printf("Error reaping stale claims: %v", err)
	} else {
		for i := range stale {
			log.Printf("Reaped stale claim for schedule %d occurrence %s",
				stale[i].ScheduleID, stale[i].OccurrenceDate.Format("2006-01-02"))
			e.notifyFailure(stale[i].ScheduleID, &stale[i])
		}
	}

	var schedules []models.Schedule
	if err := e.db.Find(&schedules).Error; err != nil {
		log.Printf("Error loading schedules, aborting tick: %v", err)
		return
	}

	for i := range schedules {
		s := schedules[i]

		if s.Recurring == models.RecurrenceNone && s.Executed {
			continue
		}
		if !occurrence.IsDue(&s, now) {
			continue
		}

		occDate := occurrence.OccurrenceDate(now)

		// Cheap pre-check so steady-state ticks do not burn claim inserts
		// on occurrences that already ran today.
		if done, err := e.ledger.HasFact(s.ID, occDate); err != nil {
			log.Printf("Error checking ledger for schedule %d: %v", s.ID, err)
			continue
		} else if done {
			continue
		}

		// Bound the number of in-flight activations before taking the claim
		// so a claimed occurrence is always immediately worked on.
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			return
		}

		exec, err := e.ledger.Claim(s.ID, occDate, e.instanceID)
		if err != nil {
			e.sem.Release(1)
			if err == ErrClaimConflict {
				// Another executor owns it. Expected, move on.
				continue
			}
			log.Printf("Error claiming occurrence for schedule %d: %v", s.ID, err)
			continue
		}

		e.wg.Add(1)
		go e.execute(s, exec)
	}
}

// execute runs the activation call with bounded retries and records the
// terminal outcome in the ledger.
func (e *Executor) execute(s models.Schedule, exec *models.Execution) {
	defer e.wg.Done()
	defer e.sem.Release(1)

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		lastErr = e.invoke(&s)
		if lastErr == nil {
			if err := e.ledger.Finalize(exec, models.OutcomeCommitted, attempt, nil); err != nil {
				log.Printf("Error committing execution for schedule %d: %v", s.ID, err)
			}
			if !s.IsRecurring() {
				if err := e.db.Model(&models.Schedule{}).Where("id = ?", s.ID).
					Update("executed", true).Error; err != nil {
					log.Printf("Error flagging schedule %d executed: %v", s.ID, err)
				}
			}
			log.Printf("Executed %s of %s %s (schedule %d, occurrence %s)",
				s.Action, s.ScheduleType, s.TargetID, s.ID,
				exec.OccurrenceDate.Format("2006-01-02"))
			return
		}

		log.Printf("Activation attempt %d/%d for schedule %d failed: %v",
			attempt, e.cfg.MaxAttempts, s.ID, lastErr)
		if attempt < e.cfg.MaxAttempts {
			time.Sleep(e.cfg.RetryDelay)
		}
	}

	if err := e.ledger.Finalize(exec, models.OutcomeFailed, e.cfg.MaxAttempts, lastErr); err != nil {
		log.Printf("Error recording failed execution for schedule %d: %v", s.ID, err)
	}
	if e.notifier != nil {
		e.notifier.ExecutionFailed(&s, exec)
	}
}

func (e *Executor) invoke(s *models.Schedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ActivationTimeout)
	defer cancel()

	if s.Action == models.ActionDeactivate {
		return e.port.Deactivate(ctx, s.ScheduleType, s.TargetID)
	}
	return e.port.Activate(ctx, s.ScheduleType, s.TargetID)
}

// notifyFailure looks the schedule back up for a reaped claim; the schedule
// may have been deleted since, in which case the log line has to do.
func (e *Executor) notifyFailure(scheduleID uint, exec *models.Execution) {
	if e.notifier == nil {
		return
	}
	var s models.Schedule
	if err := e.db.Unscoped().First(&s, scheduleID).Error; err != nil {
		return
	}
	e.notifier.ExecutionFailed(&s, exec)
}
