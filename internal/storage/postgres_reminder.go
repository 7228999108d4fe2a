package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/observer"
)

type reminderRepo struct {
	db *gorm.DB
}

func (r *reminderRepo) ListEnabledRules(ctx context.Context) ([]model.ReminderRule, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var rules []model.ReminderRule
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("tenant_id = ? AND enabled = ?", tenantID, true).
			Order("created_at ASC").
			Find(&rules).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListEnabledRules", operation)
	observer.ObserveDbOperationDuration("list", "reminder_rule", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return rules, nil
}

// FindOpenJob returns the customer's open (pending or sent) job for a
// rule, or nil when none exists. Absence is a normal state.
func (r *reminderRepo) FindOpenJob(ctx context.Context, customerID, ruleID string) (*model.ReminderJob, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var job model.ReminderJob
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("tenant_id = ? AND customer_id = ? AND rule_id = ? AND status IN ?",
				tenantID, customerID, ruleID,
				[]string{model.ReminderJobStatusPending, model.ReminderJobStatusSent}).
			First(&job).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindOpenJob", operation)
	observer.ObserveDbOperationDuration("find", "reminder_job", tenantID, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, checkConstraintViolation(err)
	}
	return &job, nil
}

// CreateJob inserts a new job. A duplicate error means another scheduler
// run claimed the (customer, rule) pair first; callers treat that as a
// clean loss, not a failure.
func (r *reminderRepo) CreateJob(ctx context.Context, job model.ReminderJob) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	if job.TenantID != tenantID {
		return fmt.Errorf("%w: job tenant %s does not match context tenant %s",
			apperrors.ErrBadRequest, job.TenantID, tenantID)
	}

	start := time.Now()
	operation := func() error {
		return r.db.WithContext(ctx).Create(&job).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "CreateReminderJob", operation)
	observer.ObserveDbOperationDuration("create", "reminder_job", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

func (r *reminderRepo) UpdateJobContent(ctx context.Context, jobID, content string) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.ReminderJob{}).
			Where("id = ? AND tenant_id = ?", jobID, tenantID).
			Update("message_content", content)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "UpdateJobContent", operation)
	observer.ObserveDbOperationDuration("update", "reminder_job", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

func (r *reminderRepo) ListDuePendingJobs(ctx context.Context, cutoff time.Time, limit int) ([]model.ReminderJob, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	start := time.Now()
	var jobs []model.ReminderJob
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("tenant_id = ? AND status = ? AND scheduled_for <= ?",
				tenantID, model.ReminderJobStatusPending, cutoff).
			Order("scheduled_for ASC").
			Limit(limit).
			Find(&jobs).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListDuePendingJobs", operation)
	observer.ObserveDbOperationDuration("list", "reminder_job", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return jobs, nil
}

// MarkJobSent records a successful dispatch. Only a pending job can
// become sent; a zero-row update surfaces as a conflict.
func (r *reminderRepo) MarkJobSent(ctx context.Context, jobID string, at time.Time) error {
	return r.finishJob(ctx, jobID, "MarkJobSent", map[string]interface{}{
		"status":          model.ReminderJobStatusSent,
		"sent_at":         at,
		"last_attempt_at": at,
		"attempts_count":  gorm.Expr("attempts_count + 1"),
		"error_message":   "",
	})
}

// MarkJobFailed records a failed dispatch with the delivery error.
func (r *reminderRepo) MarkJobFailed(ctx context.Context, jobID, errorMessage string, at time.Time) error {
	return r.finishJob(ctx, jobID, "MarkJobFailed", map[string]interface{}{
		"status":          model.ReminderJobStatusFailed,
		"error_message":   errorMessage,
		"last_attempt_at": at,
		"attempts_count":  gorm.Expr("attempts_count + 1"),
	})
}

func (r *reminderRepo) finishJob(ctx context.Context, jobID, opName string, updates map[string]interface{}) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.ReminderJob{}).
			Where("id = ? AND tenant_id = ? AND status = ?", jobID, tenantID, model.ReminderJobStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), opName, operation)
	observer.ObserveDbOperationDuration("update", "reminder_job", tenantID, time.Since(start), err)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return checkConstraintViolation(err)
	}

	var existing model.ReminderJob
	findErr := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", jobID, tenantID).
		First(&existing).Error
	if findErr != nil {
		return checkConstraintViolation(findErr)
	}
	return fmt.Errorf("%w: reminder job %s is %s", apperrors.ErrConflict, jobID, existing.Status)
}

// AppendEvent inserts one audit row. Events are append-only.
func (r *reminderRepo) AppendEvent(ctx context.Context, event model.ReminderEvent) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	if event.TenantID != tenantID {
		return fmt.Errorf("%w: event tenant %s does not match context tenant %s",
			apperrors.ErrBadRequest, event.TenantID, tenantID)
	}

	start := time.Now()
	operation := func() error {
		return r.db.WithContext(ctx).Create(&event).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "AppendReminderEvent", operation)
	observer.ObserveDbOperationDuration("create", "reminder_event", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

func (r *reminderRepo) HasOptOut(ctx context.Context, customerID string) (bool, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return false, err
	}

	start := time.Now()
	var count int64
	operation := func() error {
		return r.db.WithContext(ctx).Model(&model.ReminderOptOut{}).
			Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
			Count(&count).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "HasOptOut", operation)
	observer.ObserveDbOperationDuration("count", "reminder_opt_out", tenantID, time.Since(start), err)
	if err != nil {
		return false, checkConstraintViolation(err)
	}
	return count > 0, nil
}

func (r *reminderRepo) HasActiveSnooze(ctx context.Context, customerID string, now time.Time) (bool, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return false, err
	}

	start := time.Now()
	var count int64
	operation := func() error {
		return r.db.WithContext(ctx).Model(&model.ReminderSnooze{}).
			Where("tenant_id = ? AND customer_id = ? AND snoozed_until > ?", tenantID, customerID, now).
			Count(&count).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "HasActiveSnooze", operation)
	observer.ObserveDbOperationDuration("count", "reminder_snooze", tenantID, time.Since(start), err)
	if err != nil {
		return false, checkConstraintViolation(err)
	}
	return count > 0, nil
}

type tenantRegistry struct {
	db *gorm.DB
}

// ListActiveTenantIDs enumerates tenants with at least one enabled
// reminder rule. This read is deliberately unscoped; it feeds the
// top-level scheduler loop that fans out per-tenant contexts.
func (r *tenantRegistry) ListActiveTenantIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	var ids []string
	operation := func() error {
		return r.db.WithContext(ctx).Model(&model.ReminderRule{}).
			Where("enabled = ?", true).
			Distinct().
			Pluck("tenant_id", &ids).Error
	}
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListActiveTenantIDs", operation)
	observer.ObserveDbOperationDuration("list", "reminder_rule", "all", time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return ids, nil
}

// ListEscalationTenantIDs enumerates tenants with at least one open
// escalation request. The expiry sweep iterates these, so a tenant
// using escalations without any reminder rules is still swept.
func (r *tenantRegistry) ListEscalationTenantIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	var ids []string
	operation := func() error {
		return r.db.WithContext(ctx).Model(&model.EscalationRequest{}).
			Where("status IN ?", []string{model.EscalationStatusPending, model.EscalationStatusAcknowledged}).
			Distinct().
			Pluck("tenant_id", &ids).Error
	}
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "ListEscalationTenantIDs", operation)
	observer.ObserveDbOperationDuration("list", "escalation_request", "all", time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return ids, nil
}
