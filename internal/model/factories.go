package model

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/detailops/engagement-core/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewCustomer creates a Customer with default fake data. Pass an
// override to pin fields a test cares about.
func NewCustomer(overrideDefaults ...*Customer) *Customer {
	base := &Customer{
		ID:                 uuid.NewString(),
		TenantID:           "tenant_" + gofakeit.LetterN(10),
		Name:               gofakeit.Name(),
		Phone:              "+1" + gofakeit.Numerify("##########"),
		Email:              gofakeit.Email(),
		SMSConsent:         true,
		Vehicle:            gofakeit.CarMaker() + " " + gofakeit.CarModel(),
		VisitCount:         gofakeit.Number(1, 40),
		LifetimeValueCents: int64(gofakeit.Number(5000, 500000)),
		CreatedAt:          utils.Now().Add(-time.Duration(gofakeit.Number(1, 1000)) * time.Hour),
		UpdatedAt:          utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		base.SMSConsent = ovr.SMSConsent
		if ovr.Vehicle != "" {
			base.Vehicle = ovr.Vehicle
		}
		if ovr.VisitCount != 0 {
			base.VisitCount = ovr.VisitCount
		}
		if ovr.LifetimeValueCents != 0 {
			base.LifetimeValueCents = ovr.LifetimeValueCents
		}
	}
	return base
}

// NewConversation creates a Conversation with default fake data.
func NewConversation(overrideDefaults ...*Conversation) *Conversation {
	base := &Conversation{
		ID:         uuid.NewString(),
		TenantID:   "tenant_" + gofakeit.LetterN(10),
		CustomerID: uuid.NewString(),
		CreatedAt:  utils.Now().Add(-time.Duration(gofakeit.Number(1, 72)) * time.Hour),
		UpdatedAt:  utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.CustomerID != "" {
			base.CustomerID = ovr.CustomerID
		}
		base.HumanEscalationActive = ovr.HumanEscalationActive
		if ovr.HumanEscalationRequestedAt != nil {
			base.HumanEscalationRequestedAt = ovr.HumanEscalationRequestedAt
		}
	}
	return base
}

// NewEscalationRequest creates an EscalationRequest with default fake data.
func NewEscalationRequest(overrideDefaults ...*EscalationRequest) *EscalationRequest {
	base := &EscalationRequest{
		ID:             uuid.NewString(),
		TenantID:       "tenant_" + gofakeit.LetterN(10),
		ConversationID: uuid.NewString(),
		CustomerID:     uuid.NewString(),
		CustomerPhone:  "+1" + gofakeit.Numerify("##########"),
		CustomerName:   gofakeit.Name(),
		TriggerPhrase:  "talk to the owner",
		TriggerTier:    "A",
		Status:         EscalationStatusPending,
		ExpiresAt:      utils.Now().Add(24 * time.Hour),
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.ConversationID != "" {
			base.ConversationID = ovr.ConversationID
		}
		if ovr.CustomerID != "" {
			base.CustomerID = ovr.CustomerID
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if !ovr.ExpiresAt.IsZero() {
			base.ExpiresAt = ovr.ExpiresAt
		}
		if ovr.TriggerPhrase != "" {
			base.TriggerPhrase = ovr.TriggerPhrase
		}
	}
	return base
}

// NewReminderRule creates a ReminderRule with default fake data.
func NewReminderRule(overrideDefaults ...*ReminderRule) *ReminderRule {
	base := &ReminderRule{
		ID:                  uuid.NewString(),
		TenantID:            "tenant_" + gofakeit.LetterN(10),
		TriggerIntervalDays: DefaultTriggerIntervalDays,
		ReminderWindowDays:  DefaultReminderWindowDays,
		Enabled:             true,
		CreatedAt:           utils.Now(),
		UpdatedAt:           utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.ServiceID != nil {
			base.ServiceID = ovr.ServiceID
		}
		if ovr.TriggerIntervalDays != 0 {
			base.TriggerIntervalDays = ovr.TriggerIntervalDays
		}
		if ovr.ReminderWindowDays != 0 {
			base.ReminderWindowDays = ovr.ReminderWindowDays
		}
		base.Enabled = ovr.Enabled
	}
	return base
}

// NewReminderJob creates a ReminderJob with default fake data.
func NewReminderJob(overrideDefaults ...*ReminderJob) *ReminderJob {
	base := &ReminderJob{
		ID:           uuid.NewString(),
		TenantID:     "tenant_" + gofakeit.LetterN(10),
		CustomerID:   uuid.NewString(),
		RuleID:       uuid.NewString(),
		ScheduledFor: utils.Now(),
		Status:       ReminderJobStatusPending,
		CreatedAt:    utils.Now(),
		UpdatedAt:    utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.CustomerID != "" {
			base.CustomerID = ovr.CustomerID
		}
		if ovr.RuleID != "" {
			base.RuleID = ovr.RuleID
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.MessageContent != "" {
			base.MessageContent = ovr.MessageContent
		}
	}
	return base
}
