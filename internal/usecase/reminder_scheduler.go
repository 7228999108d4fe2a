package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/observer"
	"github.com/detailops/engagement-core/internal/storage"
	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/pkg/logger"
	"github.com/detailops/engagement-core/pkg/utils"
)

// TickResult aggregates one scheduler pass for a tenant.
type TickResult struct {
	Created int
	Errors  int
}

// DispatchResult aggregates one dispatch pass for a tenant.
type DispatchResult struct {
	Sent   int
	Failed int
}

// SchedulerPoolConfig bounds the per-candidate worker pool.
type SchedulerPoolConfig struct {
	PoolSize   int
	QueueSize  int
	ExpiryTime time.Duration
}

// ReminderScheduler turns eligible candidates into jobs and dispatches
// due jobs over SMS. Creation and dispatch are separate passes so a
// slow Twilio call never delays job creation.
type ReminderScheduler struct {
	engine        *ReminderEngine
	composer      *Composer
	reminders     storage.ReminderRepo
	customers     storage.CustomerRepo
	tenants       storage.TenantRegistry
	sms           SMSSender
	pool          *ants.Pool
	dispatchLimit int
}

// NewReminderScheduler creates the scheduler and its worker pool.
func NewReminderScheduler(
	engine *ReminderEngine,
	composer *Composer,
	reminders storage.ReminderRepo,
	customers storage.CustomerRepo,
	tenants storage.TenantRegistry,
	sms SMSSender,
	poolCfg SchedulerPoolConfig,
	dispatchLimit int,
) (*ReminderScheduler, error) {
	if poolCfg.PoolSize <= 0 {
		poolCfg.PoolSize = 8
	}
	if poolCfg.QueueSize <= 0 {
		poolCfg.QueueSize = 256
	}
	if poolCfg.ExpiryTime <= 0 {
		poolCfg.ExpiryTime = time.Minute
	}
	if dispatchLimit <= 0 {
		dispatchLimit = 100
	}

	pool, err := ants.NewPool(poolCfg.PoolSize,
		ants.WithExpiryDuration(poolCfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(poolCfg.QueueSize),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Log.Error("Panic recovered in reminder worker",
				zap.Any("panic_error", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder worker pool: %w", err)
	}

	return &ReminderScheduler{
		engine:        engine,
		composer:      composer,
		reminders:     reminders,
		customers:     customers,
		tenants:       tenants,
		sms:           sms,
		pool:          pool,
		dispatchLimit: dispatchLimit,
	}, nil
}

// Release drains and shuts down the worker pool.
func (s *ReminderScheduler) Release() {
	s.pool.Release()
}

// Tick runs one creation pass for the tenant in context. Candidate
// failures are counted, never propagated; the pass always completes.
func (s *ReminderScheduler) Tick(ctx context.Context) (TickResult, error) {
	log := logger.FromContext(ctx)
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return TickResult{}, err
	}

	start := time.Now()
	defer func() {
		observer.ObserveReminderTickDuration(tenantID, time.Since(start))
	}()

	candidates, err := s.engine.FindEligible(ctx)
	if err != nil {
		return TickResult{}, err
	}
	if len(candidates) == 0 {
		return TickResult{}, nil
	}

	var created, errs int32
	var wg sync.WaitGroup
	for _, cand := range candidates {
		cand := cand
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			switch s.createJobForCandidate(ctx, log, tenantID, cand) {
			case jobCreated:
				atomic.AddInt32(&created, 1)
			case jobFailed:
				atomic.AddInt32(&errs, 1)
			}
		})
		if submitErr != nil {
			wg.Done()
			log.Error("Failed to submit candidate to worker pool",
				zap.String("customer_id", cand.Customer.ID),
				zap.Error(submitErr))
			atomic.AddInt32(&errs, 1)
		}
	}
	wg.Wait()

	result := TickResult{Created: int(created), Errors: int(errs)}
	log.Info("Reminder tick completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("created", result.Created),
		zap.Int("errors", result.Errors))
	return result, nil
}

type jobOutcome int

const (
	jobCreated jobOutcome = iota
	jobSkipped
	jobFailed
)

// createJobForCandidate inserts the job with template content first so
// the job id exists for action links, then upgrades the content via the
// composer. A duplicate insert means a concurrent run claimed the
// (customer, rule) pair; that is a clean loss.
func (s *ReminderScheduler) createJobForCandidate(ctx context.Context, log *zap.Logger, tenantID string, cand Candidate) jobOutcome {
	now := utils.Now()
	job := model.ReminderJob{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		CustomerID:   cand.Customer.ID,
		RuleID:       cand.Rule.ID,
		ScheduledFor: now,
		Status:       model.ReminderJobStatusPending,
	}
	job.MessageContent = s.composer.FallbackMessage(cand, job.ID)

	if err := s.reminders.CreateJob(ctx, job); err != nil {
		if apperrors.IsDuplicateError(err) {
			log.Debug("Concurrent scheduler already claimed candidate",
				zap.String("customer_id", cand.Customer.ID),
				zap.String("rule_id", cand.Rule.ID))
			return jobSkipped
		}
		log.Error("Failed to create reminder job",
			zap.String("customer_id", cand.Customer.ID),
			zap.String("rule_id", cand.Rule.ID),
			zap.Error(err))
		return jobFailed
	}

	content := s.composer.Compose(ctx, cand, job.ID)
	if content != job.MessageContent {
		if err := s.reminders.UpdateJobContent(ctx, job.ID, content); err != nil {
			// The placeholder template is still a valid message.
			log.Warn("Failed to upgrade job content, template stands",
				zap.String("job_id", job.ID),
				zap.Error(err))
		}
	}

	s.appendEvent(ctx, log, tenantID, job.ID, model.ReminderEventCreated, map[string]interface{}{
		"rule_id":            cand.Rule.ID,
		"days_since_service": cand.DaysSinceService,
	})

	observer.IncReminderJobCreated(tenantID)
	return jobCreated
}

// DispatchPending sends every due pending job for the tenant in context.
func (s *ReminderScheduler) DispatchPending(ctx context.Context) (DispatchResult, error) {
	log := logger.FromContext(ctx)
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return DispatchResult{}, err
	}

	now := utils.Now()
	jobs, err := s.reminders.ListDuePendingJobs(ctx, now, s.dispatchLimit)
	if err != nil {
		return DispatchResult{}, err
	}

	var result DispatchResult
	for _, job := range jobs {
		if s.dispatchJob(ctx, log, tenantID, job) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	if result.Sent > 0 || result.Failed > 0 {
		log.Info("Reminder dispatch completed",
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

func (s *ReminderScheduler) dispatchJob(ctx context.Context, log *zap.Logger, tenantID string, job model.ReminderJob) bool {
	deliveryErr := s.deliverSMS(ctx, job)
	now := utils.Now()

	if deliveryErr != nil {
		log.Warn("Reminder delivery failed",
			zap.String("job_id", job.ID),
			zap.String("customer_id", job.CustomerID),
			zap.Error(deliveryErr))
		if err := s.reminders.MarkJobFailed(ctx, job.ID, deliveryErr.Error(), now); err != nil {
			log.Error("Failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		s.appendEvent(ctx, log, tenantID, job.ID, model.ReminderEventFailed, map[string]interface{}{
			"error": deliveryErr.Error(),
		})
		observer.IncReminderJobFailed(tenantID)
		return false
	}

	if err := s.reminders.MarkJobSent(ctx, job.ID, now); err != nil {
		// The SMS is already out. A job left pending here is re-sent on
		// the next dispatch pass, so this failure can duplicate one
		// reminder; the customer still has the opt-out link either way.
		log.Error("Failed to mark job sent, next pass may re-send", zap.String("job_id", job.ID), zap.Error(err))
		return false
	}
	s.appendEvent(ctx, log, tenantID, job.ID, model.ReminderEventSent, nil)
	observer.IncReminderJobSent(tenantID)
	return true
}

func (s *ReminderScheduler) deliverSMS(ctx context.Context, job model.ReminderJob) error {
	if s.sms == nil {
		return apperrors.ErrChannelDisabled
	}

	customer, err := s.customers.FindByID(ctx, job.CustomerID)
	if err != nil {
		return fmt.Errorf("customer lookup failed: %w", err)
	}
	if customer.Phone == "" || !customer.SMSConsent {
		return fmt.Errorf("%w: customer %s has no SMS channel", apperrors.ErrChannelDisabled, customer.ID)
	}

	return s.sms.SendSMS(ctx, customer.Phone, job.MessageContent)
}

func (s *ReminderScheduler) appendEvent(ctx context.Context, log *zap.Logger, tenantID, jobID, eventType string, metadata map[string]interface{}) {
	event := model.ReminderEvent{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		JobID:     jobID,
		EventType: eventType,
		Channel:   "sms",
	}
	if metadata != nil {
		event.Metadata = datatypes.JSON(utils.MustMarshalJSON(metadata))
	}
	if err := s.reminders.AppendEvent(ctx, event); err != nil {
		log.Warn("Failed to append reminder event",
			zap.String("job_id", jobID),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// TickAllTenants runs a creation pass for every active tenant. One
// tenant's failure never aborts the sweep.
func (s *ReminderScheduler) TickAllTenants(ctx context.Context) {
	s.forEachTenant(ctx, "tick", func(tctx context.Context) error {
		_, err := s.Tick(tctx)
		return err
	})
}

// DispatchAllTenants runs a dispatch pass for every active tenant.
func (s *ReminderScheduler) DispatchAllTenants(ctx context.Context) {
	s.forEachTenant(ctx, "dispatch", func(tctx context.Context) error {
		_, err := s.DispatchPending(tctx)
		return err
	})
}

func (s *ReminderScheduler) forEachTenant(ctx context.Context, pass string, fn func(context.Context) error) {
	log := logger.FromContext(ctx)

	tenantIDs, err := s.tenants.ListActiveTenantIDs(ctx)
	if err != nil {
		log.Error("Failed to list active tenants", zap.String("pass", pass), zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		tctx := tenant.WithTenantID(ctx, tenantID)
		if err := fn(tctx); err != nil {
			log.Error("Tenant pass failed",
				zap.String("pass", pass),
				zap.String("tenant_id", tenantID),
				zap.Error(err))
		}
	}
}
