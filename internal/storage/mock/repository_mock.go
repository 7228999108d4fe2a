package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/storage"
)

// --- ConversationRepo Mock ---

// ConversationRepoMock mocks the ConversationRepo interface
type ConversationRepoMock struct {
	mock.Mock
}

// FindByID mocks the FindByID method
func (m *ConversationRepoMock) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

// SetEscalationActive mocks the SetEscalationActive method
func (m *ConversationRepoMock) SetEscalationActive(ctx context.Context, id string, requestedAt time.Time) error {
	args := m.Called(ctx, id, requestedAt)
	return args.Error(0)
}

// ClearEscalationActive mocks the ClearEscalationActive method
func (m *ConversationRepoMock) ClearEscalationActive(ctx context.Context, id string, handledAt *time.Time, handledBy string) error {
	args := m.Called(ctx, id, handledAt, handledBy)
	return args.Error(0)
}

// FindRecentMessages mocks the FindRecentMessages method
func (m *ConversationRepoMock) FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.ConversationMessage, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConversationMessage), args.Error(1)
}

// --- CustomerRepo Mock ---

// CustomerRepoMock mocks the CustomerRepo interface
type CustomerRepoMock struct {
	mock.Mock
}

// FindByID mocks the FindByID method
func (m *CustomerRepoMock) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

// LastCompletedVisit mocks the LastCompletedVisit method
func (m *CustomerRepoMock) LastCompletedVisit(ctx context.Context, customerID string) (*model.ServiceVisit, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ServiceVisit), args.Error(1)
}

// LatestCompletedVisits mocks the LatestCompletedVisits method
func (m *CustomerRepoMock) LatestCompletedVisits(ctx context.Context, serviceID *string) ([]storage.LatestVisit, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LatestVisit), args.Error(1)
}

// ListAdminUserIDs mocks the ListAdminUserIDs method
func (m *CustomerRepoMock) ListAdminUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- EscalationRepo Mock ---

// EscalationRepoMock mocks the EscalationRepo interface
type EscalationRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *EscalationRepoMock) Save(ctx context.Context, esc model.EscalationRequest) error {
	args := m.Called(ctx, esc)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *EscalationRepoMock) FindByID(ctx context.Context, id string) (*model.EscalationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EscalationRequest), args.Error(1)
}

// SetNotificationFlags mocks the SetNotificationFlags method
func (m *EscalationRepoMock) SetNotificationFlags(ctx context.Context, id string, smsSent, pushSent bool) error {
	args := m.Called(ctx, id, smsSent, pushSent)
	return args.Error(0)
}

// Acknowledge mocks the Acknowledge method
func (m *EscalationRepoMock) Acknowledge(ctx context.Context, id, userID string, at time.Time) error {
	args := m.Called(ctx, id, userID, at)
	return args.Error(0)
}

// Resolve mocks the Resolve method
func (m *EscalationRepoMock) Resolve(ctx context.Context, id, userID string, at time.Time) error {
	args := m.Called(ctx, id, userID, at)
	return args.Error(0)
}

// ExpireOlderThan mocks the ExpireOlderThan method
func (m *EscalationRepoMock) ExpireOlderThan(ctx context.Context, cutoff time.Time) ([]model.EscalationRequest, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EscalationRequest), args.Error(1)
}

// --- ReminderRepo Mock ---

// ReminderRepoMock mocks the ReminderRepo interface
type ReminderRepoMock struct {
	mock.Mock
}

// ListEnabledRules mocks the ListEnabledRules method
func (m *ReminderRepoMock) ListEnabledRules(ctx context.Context) ([]model.ReminderRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReminderRule), args.Error(1)
}

// FindOpenJob mocks the FindOpenJob method
func (m *ReminderRepoMock) FindOpenJob(ctx context.Context, customerID, ruleID string) (*model.ReminderJob, error) {
	args := m.Called(ctx, customerID, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReminderJob), args.Error(1)
}

// CreateJob mocks the CreateJob method
func (m *ReminderRepoMock) CreateJob(ctx context.Context, job model.ReminderJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// UpdateJobContent mocks the UpdateJobContent method
func (m *ReminderRepoMock) UpdateJobContent(ctx context.Context, jobID, content string) error {
	args := m.Called(ctx, jobID, content)
	return args.Error(0)
}

// ListDuePendingJobs mocks the ListDuePendingJobs method
func (m *ReminderRepoMock) ListDuePendingJobs(ctx context.Context, cutoff time.Time, limit int) ([]model.ReminderJob, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReminderJob), args.Error(1)
}

// MarkJobSent mocks the MarkJobSent method
func (m *ReminderRepoMock) MarkJobSent(ctx context.Context, jobID string, at time.Time) error {
	args := m.Called(ctx, jobID, at)
	return args.Error(0)
}

// MarkJobFailed mocks the MarkJobFailed method
func (m *ReminderRepoMock) MarkJobFailed(ctx context.Context, jobID, errorMessage string, at time.Time) error {
	args := m.Called(ctx, jobID, errorMessage, at)
	return args.Error(0)
}

// AppendEvent mocks the AppendEvent method
func (m *ReminderRepoMock) AppendEvent(ctx context.Context, event model.ReminderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// HasOptOut mocks the HasOptOut method
func (m *ReminderRepoMock) HasOptOut(ctx context.Context, customerID string) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

// HasActiveSnooze mocks the HasActiveSnooze method
func (m *ReminderRepoMock) HasActiveSnooze(ctx context.Context, customerID string, now time.Time) (bool, error) {
	args := m.Called(ctx, customerID, now)
	return args.Bool(0), args.Error(1)
}

// --- TenantRegistry Mock ---

// TenantRegistryMock mocks the TenantRegistry interface
type TenantRegistryMock struct {
	mock.Mock
}

// ListActiveTenantIDs mocks the ListActiveTenantIDs method
func (m *TenantRegistryMock) ListActiveTenantIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ListEscalationTenantIDs mocks the ListEscalationTenantIDs method
func (m *TenantRegistryMock) ListEscalationTenantIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
