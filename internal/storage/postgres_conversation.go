package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/observer"
)

type conversationRepo struct {
	db *gorm.DB
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var conv model.Conversation
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			First(&conv).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindConversationByID", operation)
	observer.ObserveDbOperationDuration("find", "conversation", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return &conv, nil
}

// SetEscalationActive flips the human-takeover flag. The AI reply
// pipeline reads this flag to suppress automated responses.
func (r *conversationRepo) SetEscalationActive(ctx context.Context, id string, requestedAt time.Time) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Conversation{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(map[string]interface{}{
				"human_escalation_active":       true,
				"human_escalation_requested_at": requestedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SetEscalationActive", operation)
	observer.ObserveDbOperationDuration("update", "conversation", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

// ClearEscalationActive ends human takeover and records who handled it.
// handledAt is nil when the request expired unattended.
func (r *conversationRepo) ClearEscalationActive(ctx context.Context, id string, handledAt *time.Time, handledBy string) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Conversation{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(map[string]interface{}{
				"human_escalation_active": false,
				"human_handled_at":        handledAt,
				"human_handled_by":        handledBy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "ClearEscalationActive", operation)
	observer.ObserveDbOperationDuration("update", "conversation", tenantID, time.Since(start), err)
	if err != nil {
		return checkConstraintViolation(err)
	}
	return nil
}

// FindRecentMessages returns the newest messages first, capped at limit.
func (r *conversationRepo) FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.ConversationMessage, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	start := time.Now()
	var messages []model.ConversationMessage
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("conversation_id = ? AND tenant_id = ?", conversationID, tenantID).
			Order("created_at DESC").
			Limit(limit).
			Find(&messages).Error
	}
	err = retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindRecentMessages", operation)
	observer.ObserveDbOperationDuration("list", "conversation_message", tenantID, time.Since(start), err)
	if err != nil {
		return nil, checkConstraintViolation(err)
	}
	return messages, nil
}
