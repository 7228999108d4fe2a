package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/detailops/engagement-core/internal/model"
	storagemock "github.com/detailops/engagement-core/internal/storage/mock"
	"github.com/detailops/engagement-core/internal/tenant"
)

type escalationFixture struct {
	conversations *storagemock.ConversationRepoMock
	customers     *storagemock.CustomerRepoMock
	escalations   *storagemock.EscalationRepoMock
	tenants       *storagemock.TenantRegistryMock
	sms           *smsSenderMock
	push          *pushSenderMock
	service       *EscalationService
}

func newEscalationFixture() *escalationFixture {
	f := &escalationFixture{
		conversations: new(storagemock.ConversationRepoMock),
		customers:     new(storagemock.CustomerRepoMock),
		escalations:   new(storagemock.EscalationRepoMock),
		tenants:       new(storagemock.TenantRegistryMock),
		sms:           new(smsSenderMock),
		push:          new(pushSenderMock),
	}
	notifier := NewNotifier(f.sms, f.push, f.customers, "+15559998888", time.Second, time.Second)
	f.service = NewEscalationService(f.conversations, f.customers, f.escalations, f.tenants, notifier, 24*time.Hour, 5)
	return f
}

func TestEscalationService_Create_HappyPath(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	completedAt := time.Now().AddDate(0, 0, -30)
	f.conversations.On("FindByID", mock.Anything, "conv-1").
		Return(&model.Conversation{ID: "conv-1", TenantID: "tenant-notify"}, nil).Once()
	f.customers.On("FindByID", mock.Anything, "cust-1").
		Return(&model.Customer{ID: "cust-1", Name: "Maria Santos", Vehicle: "2022 Tesla Model 3", Phone: "+15550001111", VisitCount: 4}, nil).Once()
	f.customers.On("LastCompletedVisit", mock.Anything, "cust-1").
		Return(&model.ServiceVisit{CompletedAt: &completedAt}, nil).Once()
	f.conversations.On("FindRecentMessages", mock.Anything, "conv-1", 5).
		Return([]model.ConversationMessage{
			{Direction: model.DirectionInbound, Body: "I want to talk to a human"},
			{Direction: model.DirectionOutbound, Body: "How can I help?"},
		}, nil).Once()

	var saved model.EscalationRequest
	f.escalations.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(model.EscalationRequest)
		}).Return(nil).Once()
	f.conversations.On("SetEscalationActive", mock.Anything, "conv-1", mock.Anything).Return(nil).Once()

	f.sms.On("SendSMS", mock.Anything, "+15559998888", mock.Anything).Return(nil).Once()
	f.customers.On("ListAdminUserIDs", mock.Anything).Return([]string{"admin-1"}, nil).Once()
	f.push.On("SendPush", mock.Anything, "admin-1", mock.Anything).Return(1, nil).Once()
	f.escalations.On("SetNotificationFlags", mock.Anything, mock.Anything, true, true).Return(nil).Once()

	esc, err := f.service.Create(ctx, CreateEscalationInput{
		ConversationID: "conv-1",
		CustomerID:     "cust-1",
		CustomerPhone:  "+15550001111",
		TriggerPhrase:  "talk to a human",
		TriggerTier:    "B",
	})

	assert.NoError(t, err)
	assert.NotNil(t, esc)
	assert.Equal(t, model.EscalationStatusPending, saved.Status)
	assert.Equal(t, "Maria Santos", saved.CustomerName)
	assert.Equal(t, "2022 Tesla Model 3", saved.CustomerVehicle)
	assert.NotNil(t, saved.LastServiceDate)
	assert.Contains(t, saved.RecentMessageSummary, "customer: I want to talk to a human")
	assert.Contains(t, saved.RecentMessageSummary, "assistant: How can I help?")
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), saved.ExpiresAt, time.Minute)
	assert.True(t, esc.SMSNotificationSent)
	assert.True(t, esc.PushNotificationSent)
	f.escalations.AssertExpectations(t)
	f.conversations.AssertExpectations(t)
}

func TestEscalationService_Create_DuplicateGuard(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	f.conversations.On("FindByID", mock.Anything, "conv-active").
		Return(&model.Conversation{ID: "conv-active", HumanEscalationActive: true}, nil).Once()

	esc, err := f.service.Create(ctx, CreateEscalationInput{
		ConversationID: "conv-active",
		CustomerPhone:  "+15550001111",
		TriggerPhrase:  "human please",
	})

	// Suppressed, not failed: no second request while one is active.
	assert.NoError(t, err)
	assert.Nil(t, esc)
	f.escalations.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.conversations.AssertNotCalled(t, "SetEscalationActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestEscalationService_Create_SnapshotFailureIsNotFatal(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	f.conversations.On("FindByID", mock.Anything, "conv-1").
		Return(&model.Conversation{ID: "conv-1"}, nil).Once()
	f.customers.On("FindByID", mock.Anything, "cust-gone").
		Return(nil, errors.New("db down")).Once()
	f.conversations.On("FindRecentMessages", mock.Anything, "conv-1", 5).
		Return(nil, errors.New("db down")).Once()
	f.escalations.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	f.conversations.On("SetEscalationActive", mock.Anything, "conv-1", mock.Anything).Return(nil).Once()
	f.sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.customers.On("ListAdminUserIDs", mock.Anything).Return([]string{}, nil).Once()
	f.escalations.On("SetNotificationFlags", mock.Anything, mock.Anything, true, false).Return(nil).Once()

	esc, err := f.service.Create(ctx, CreateEscalationInput{
		ConversationID: "conv-1",
		CustomerID:     "cust-gone",
		CustomerPhone:  "+15550001111",
		TriggerPhrase:  "real person",
	})

	assert.NoError(t, err)
	assert.NotNil(t, esc)
	assert.Empty(t, esc.CustomerName)
}

func TestEscalationService_Create_SaveFailure(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	f.conversations.On("FindByID", mock.Anything, "conv-1").
		Return(&model.Conversation{ID: "conv-1"}, nil).Once()
	f.conversations.On("FindRecentMessages", mock.Anything, "conv-1", 5).
		Return([]model.ConversationMessage{}, nil).Once()
	f.escalations.On("Save", mock.Anything, mock.Anything).Return(errors.New("insert failed")).Once()

	esc, err := f.service.Create(ctx, CreateEscalationInput{
		ConversationID: "conv-1",
		CustomerPhone:  "+15550001111",
		TriggerPhrase:  "human",
	})

	assert.Error(t, err)
	assert.Nil(t, esc)
	f.conversations.AssertNotCalled(t, "SetEscalationActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestEscalationService_Resolve_ClearsConversationFlag(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	f.escalations.On("FindByID", mock.Anything, "esc-1").
		Return(&model.EscalationRequest{ID: "esc-1", ConversationID: "conv-1", Status: model.EscalationStatusAcknowledged}, nil).Once()
	f.escalations.On("Resolve", mock.Anything, "esc-1", "staff-1", mock.Anything).Return(nil).Once()
	f.conversations.On("ClearEscalationActive", mock.Anything, "conv-1", mock.Anything, "staff-1").Return(nil).Once()

	err := f.service.Resolve(ctx, "esc-1", "staff-1")

	assert.NoError(t, err)
	f.conversations.AssertExpectations(t)
}

func TestEscalationService_ExpireOld(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	expired := []model.EscalationRequest{
		{ID: "esc-a", ConversationID: "conv-a"},
		{ID: "esc-b", ConversationID: "conv-b"},
	}
	f.escalations.On("ExpireOlderThan", mock.Anything, mock.Anything).Return(expired, nil).Once()
	f.conversations.On("ClearEscalationActive", mock.Anything, "conv-a", (*time.Time)(nil), "").Return(nil).Once()
	f.conversations.On("ClearEscalationActive", mock.Anything, "conv-b", (*time.Time)(nil), "").Return(nil).Once()

	count, err := f.service.ExpireOld(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	f.conversations.AssertExpectations(t)
}

func TestEscalationService_SweepAllTenants_CoversRulelessTenants(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	// tenant-escalations-only has no reminder rules; the sweep must
	// reach it anyway, so tenants come from the escalation rows.
	f.tenants.On("ListEscalationTenantIDs", mock.Anything).
		Return([]string{"tenant-escalations-only", "tenant-b"}, nil).Once()

	var swept []string
	f.escalations.On("ExpireOlderThan", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			id, err := tenant.FromContext(args.Get(0).(context.Context))
			require.NoError(t, err)
			swept = append(swept, id)
		}).
		Return([]model.EscalationRequest{}, nil).Twice()

	f.service.SweepAllTenants(ctx)

	assert.Equal(t, []string{"tenant-escalations-only", "tenant-b"}, swept)
	f.tenants.AssertNotCalled(t, "ListActiveTenantIDs", mock.Anything)
	f.escalations.AssertExpectations(t)
	f.tenants.AssertExpectations(t)
}

func TestEscalationService_ExpireOld_NothingDue(t *testing.T) {
	ctx := testContext(t)
	f := newEscalationFixture()

	f.escalations.On("ExpireOlderThan", mock.Anything, mock.Anything).
		Return([]model.EscalationRequest{}, nil).Once()

	count, err := f.service.ExpireOld(ctx)

	assert.NoError(t, err)
	assert.Zero(t, count)
	f.conversations.AssertNotCalled(t, "ClearEscalationActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
