package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/observer"
)

type escalationRepo struct {
	db *gorm.DB
}

func (r *escalationRepo) Save(ctx context.Context, esc model.EscalationRequest) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	if esc.TenantID != tenantID {
		return fmt.Errorf("%w: escalation tenant %s does not match context tenant %s",
			apperrors.ErrBadRequest, esc.TenantID, tenantID)
	}

	start := time.Now()
	operation := func() error {
		return r.db.WithContext(ctx).Save(&esc).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SaveEscalation", operation)
	observer.ObserveDbOperationDuration("save", "escalation", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

func (r *escalationRepo) FindByID(ctx context.Context, id string) (*model.EscalationRequest, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var esc model.EscalationRequest
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			First(&esc).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindEscalationByID", operation)
	observer.ObserveDbOperationDuration("find", "escalation", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return &esc, nil
}

// SetNotificationFlags records fan-out outcomes after delivery attempts.
func (r *escalationRepo) SetNotificationFlags(ctx context.Context, id string, smsSent, pushSent bool) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.EscalationRequest{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(map[string]interface{}{
				"sms_notification_sent":  smsSent,
				"push_notification_sent": pushSent,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SetNotificationFlags", operation)
	observer.ObserveDbOperationDuration("update", "escalation", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

// Acknowledge moves an open request to acknowledged. Re-acknowledging
// overwrites the stamp; a terminal request conflicts.
func (r *escalationRepo) Acknowledge(ctx context.Context, id, userID string, at time.Time) error {
	return r.transition(ctx, id, "AcknowledgeEscalation",
		[]string{model.EscalationStatusPending, model.EscalationStatusAcknowledged},
		map[string]interface{}{
			"status":          model.EscalationStatusAcknowledged,
			"acknowledged_at": at,
			"acknowledged_by": userID,
		})
}

// Resolve moves an open request to resolved from either open state.
func (r *escalationRepo) Resolve(ctx context.Context, id, userID string, at time.Time) error {
	return r.transition(ctx, id, "ResolveEscalation",
		[]string{model.EscalationStatusPending, model.EscalationStatusAcknowledged},
		map[string]interface{}{
			"status":      model.EscalationStatusResolved,
			"resolved_at": at,
			"resolved_by": userID,
		})
}

func (r *escalationRepo) transition(ctx context.Context, id, opName string, fromStatuses []string, updates map[string]interface{}) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.EscalationRequest{}).
			Where("id = ? AND tenant_id = ? AND status IN ?", id, tenantID, fromStatuses).
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
	observer.ObserveDbOperationDuration("update", "escalation", tenantID, time.Since(start), err)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return checkConstraintViolation(err)
	}

	// Zero rows: distinguish a missing request from a wrong-state one.
	var existing model.EscalationRequest
	findErr := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&existing).Error
	if findErr != nil {
		return checkConstraintViolation(findErr)
	}
	return fmt.Errorf("%w: escalation %s is %s", apperrors.ErrConflict, id, existing.Status)
}

// ExpireOlderThan transitions every open request past its deadline and
// returns the affected rows so the caller can clear conversation flags.
func (r *escalationRepo) ExpireOlderThan(ctx context.Context, cutoff time.Time) ([]model.EscalationRequest, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var expired []model.EscalationRequest
	operation := func() error {
		expired = expired[:0]
		return r.db.WithContext(ctx).Model(&expired).
			Clauses(clause.Returning{}).
			Where("tenant_id = ? AND status IN ? AND expires_at < ?",
				tenantID,
				[]string{model.EscalationStatusPending, model.EscalationStatusAcknowledged},
				cutoff).
			Updates(map[string]interface{}{"status": model.EscalationStatusExpired}).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "ExpireEscalations", operation)
	observer.ObserveDbOperationDuration("update", "escalation", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return expired, nil
}
