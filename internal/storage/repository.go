package storage

import (
	"context"
	"time"

	"github.com/detailops/engagement-core/internal/model"
)

// LatestVisit is one row of the grouped latest-completed-visit query:
// the single most recent completed visit per customer, before any
// window filtering is applied.
type LatestVisit struct {
	CustomerID      string    `gorm:"column:customer_id"`
	ServiceName     string    `gorm:"column:service_name"`
	LastCompletedAt time.Time `gorm:"column:last_completed_at"`
}

// ConversationRepo defines conversation storage operations
type ConversationRepo interface {
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	SetEscalationActive(ctx context.Context, id string, requestedAt time.Time) error
	ClearEscalationActive(ctx context.Context, id string, handledAt *time.Time, handledBy string) error
	FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.ConversationMessage, error)
}

// CustomerRepo defines customer and service-history storage operations
type CustomerRepo interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	LastCompletedVisit(ctx context.Context, customerID string) (*model.ServiceVisit, error)
	// LatestCompletedVisits returns each customer's most recent completed
	// visit within the service scope (nil = all services), grouped and
	// unfiltered by date. Window filtering happens after grouping, never
	// before.
	LatestCompletedVisits(ctx context.Context, serviceID *string) ([]LatestVisit, error)
	ListAdminUserIDs(ctx context.Context) ([]string, error)
}

// EscalationRepo defines escalation request storage operations
type EscalationRepo interface {
	Save(ctx context.Context, esc model.EscalationRequest) error
	FindByID(ctx context.Context, id string) (*model.EscalationRequest, error)
	SetNotificationFlags(ctx context.Context, id string, smsSent, pushSent bool) error
	Acknowledge(ctx context.Context, id, userID string, at time.Time) error
	Resolve(ctx context.Context, id, userID string, at time.Time) error
	// ExpireOlderThan transitions every open request with expires_at
	// before cutoff to expired and returns the affected rows.
	ExpireOlderThan(ctx context.Context, cutoff time.Time) ([]model.EscalationRequest, error)
}

// ReminderRepo defines reminder rule/job/audit storage operations
type ReminderRepo interface {
	ListEnabledRules(ctx context.Context) ([]model.ReminderRule, error)
	FindOpenJob(ctx context.Context, customerID, ruleID string) (*model.ReminderJob, error)
	CreateJob(ctx context.Context, job model.ReminderJob) error
	UpdateJobContent(ctx context.Context, jobID, content string) error
	ListDuePendingJobs(ctx context.Context, cutoff time.Time, limit int) ([]model.ReminderJob, error)
	MarkJobSent(ctx context.Context, jobID string, at time.Time) error
	MarkJobFailed(ctx context.Context, jobID, errorMessage string, at time.Time) error
	AppendEvent(ctx context.Context, event model.ReminderEvent) error
	HasOptOut(ctx context.Context, customerID string) (bool, error)
	HasActiveSnooze(ctx context.Context, customerID string, now time.Time) (bool, error)
}

// TenantRegistry enumerates tenants for the cross-tenant sweeps. These
// are the only deliberately-unscoped reads in the storage layer;
// everything else requires a tenant in context.
type TenantRegistry interface {
	// ListActiveTenantIDs lists tenants with reminder automation enabled.
	ListActiveTenantIDs(ctx context.Context) ([]string, error)
	// ListEscalationTenantIDs lists tenants with at least one open
	// escalation request, whether or not they use reminders.
	ListEscalationTenantIDs(ctx context.Context) ([]string, error)
}
