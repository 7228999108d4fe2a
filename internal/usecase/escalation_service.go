package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/observer"
	"github.com/detailops/engagement-core/internal/storage"
	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/pkg/logger"
	"github.com/detailops/engagement-core/pkg/utils"
)

// CreateEscalationInput carries what the ingestion path knows at the
// moment a trigger fires.
type CreateEscalationInput struct {
	ConversationID   string
	CustomerID       string
	CustomerPhone    string
	TriggerPhrase    string
	TriggerTier      string
	TriggerMessageID string
}

// EscalationService owns the escalation request lifecycle: creation
// with snapshot and fan-out, staff transitions, and the expiry sweep.
type EscalationService struct {
	conversations storage.ConversationRepo
	customers     storage.CustomerRepo
	escalations   storage.EscalationRepo
	tenants       storage.TenantRegistry
	notifier      *Notifier
	ttl           time.Duration
	summaryDepth  int
}

// NewEscalationService creates the lifecycle manager.
func NewEscalationService(
	conversations storage.ConversationRepo,
	customers storage.CustomerRepo,
	escalations storage.EscalationRepo,
	tenants storage.TenantRegistry,
	notifier *Notifier,
	ttl time.Duration,
	summaryDepth int,
) *EscalationService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if summaryDepth <= 0 {
		summaryDepth = 5
	}
	return &EscalationService{
		conversations: conversations,
		customers:     customers,
		escalations:   escalations,
		tenants:       tenants,
		notifier:      notifier,
		ttl:           ttl,
		summaryDepth:  summaryDepth,
	}
}

// Create opens an escalation for a conversation. Returns (nil, nil)
// when the conversation already has an active escalation; one open
// request per conversation at a time.
func (s *EscalationService) Create(ctx context.Context, input CreateEscalationInput) (*model.EscalationRequest, error) {
	log := logger.FromContext(ctx)
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.FindByID(ctx, input.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", input.ConversationID, err)
	}
	if conv.HumanEscalationActive {
		log.Info("Escalation suppressed, conversation already has an active request",
			zap.String("conversation_id", conv.ID))
		observer.IncEscalationSuppressed(tenantID)
		return nil, nil
	}

	now := utils.Now()
	esc := model.EscalationRequest{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		ConversationID:   conv.ID,
		CustomerID:       input.CustomerID,
		CustomerPhone:    input.CustomerPhone,
		TriggerPhrase:    input.TriggerPhrase,
		TriggerTier:      input.TriggerTier,
		TriggerMessageID: input.TriggerMessageID,
		Status:           model.EscalationStatusPending,
		ExpiresAt:        now.Add(s.ttl),
	}

	// Snapshot enrichment is best-effort: the request must be created
	// even when the customer record or history is unavailable.
	customer := s.snapshotCustomer(ctx, log, &esc, input.CustomerID)
	esc.RecentMessageSummary = s.summarizeRecentMessages(ctx, log, conv.ID)

	if err := s.escalations.Save(ctx, esc); err != nil {
		return nil, fmt.Errorf("failed to save escalation request: %w", err)
	}

	if err := s.conversations.SetEscalationActive(ctx, conv.ID, now); err != nil {
		log.Error("Failed to flag conversation for human takeover",
			zap.String("conversation_id", conv.ID),
			zap.String("escalation_id", esc.ID),
			zap.Error(err))
	}

	outcome := s.notifier.FanOut(ctx, &esc, customer)
	esc.SMSNotificationSent = outcome.SMSSent
	esc.PushNotificationSent = outcome.PushSent
	if err := s.escalations.SetNotificationFlags(ctx, esc.ID, outcome.SMSSent, outcome.PushSent); err != nil {
		log.Error("Failed to persist notification flags",
			zap.String("escalation_id", esc.ID),
			zap.Error(err))
	}

	observer.IncEscalationCreated(tenantID, esc.TriggerTier)
	log.Info("Escalation request created",
		zap.String("escalation_id", esc.ID),
		zap.String("conversation_id", conv.ID),
		zap.String("tier", esc.TriggerTier),
		zap.Bool("sms_sent", outcome.SMSSent),
		zap.Bool("push_sent", outcome.PushSent))

	return &esc, nil
}

func (s *EscalationService) snapshotCustomer(ctx context.Context, log *zap.Logger, esc *model.EscalationRequest, customerID string) *model.Customer {
	if customerID == "" {
		return nil
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		log.Warn("Customer lookup failed for escalation snapshot",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil
	}

	esc.CustomerName = customer.Name
	esc.CustomerVehicle = customer.Vehicle
	if esc.CustomerPhone == "" {
		esc.CustomerPhone = customer.Phone
	}

	if visit, err := s.customers.LastCompletedVisit(ctx, customerID); err != nil {
		log.Warn("Last visit lookup failed for escalation snapshot",
			zap.String("customer_id", customerID),
			zap.Error(err))
	} else if visit != nil {
		esc.LastServiceDate = visit.CompletedAt
	}

	return customer
}

// summarizeRecentMessages renders the last few messages oldest-first so
// staff can read the thread top to bottom.
func (s *EscalationService) summarizeRecentMessages(ctx context.Context, log *zap.Logger, conversationID string) string {
	messages, err := s.conversations.FindRecentMessages(ctx, conversationID, s.summaryDepth)
	if err != nil {
		log.Warn("Recent message lookup failed for escalation summary",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return ""
	}

	lines := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		speaker := "assistant"
		if msg.Direction == model.DirectionInbound {
			speaker = "customer"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.Body))
	}
	return strings.Join(lines, "\n")
}

// Acknowledge marks the request as claimed by a staff user. The
// conversation stays in human-only mode.
func (s *EscalationService) Acknowledge(ctx context.Context, id, userID string) error {
	return s.escalations.Acknowledge(ctx, id, userID, utils.Now())
}

// Resolve closes the request and re-enables automated replies on the
// conversation. This is the only normal path out of human-only mode.
func (s *EscalationService) Resolve(ctx context.Context, id, userID string) error {
	esc, err := s.escalations.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := utils.Now()
	if err := s.escalations.Resolve(ctx, id, userID, now); err != nil {
		return err
	}

	if err := s.conversations.ClearEscalationActive(ctx, esc.ConversationID, &now, userID); err != nil {
		logger.FromContext(ctx).Error("Failed to clear conversation escalation flag on resolve",
			zap.String("conversation_id", esc.ConversationID),
			zap.String("escalation_id", id),
			zap.Error(err))
		return err
	}
	return nil
}

// ExpireOld transitions every open request past its deadline and clears
// the affected conversation flags. The safety valve against
// conversations stuck in human-only mode.
func (s *EscalationService) ExpireOld(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return 0, err
	}

	now := utils.Now()
	expired, err := s.escalations.ExpireOlderThan(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", err)
	}

	for _, esc := range expired {
		// handledAt stays nil: nobody handled it, the clock did.
		if err := s.conversations.ClearEscalationActive(ctx, esc.ConversationID, nil, ""); err != nil {
			log.Error("Failed to clear conversation flag for expired escalation",
				zap.String("conversation_id", esc.ConversationID),
				zap.String("escalation_id", esc.ID),
				zap.Error(err))
		}
	}

	if len(expired) > 0 {
		observer.IncEscalationsExpired(tenantID, len(expired))
		log.Info("Expired stale escalation requests", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}

// SweepAllTenants runs the expiry sweep for every tenant with open
// escalations. Tenants are enumerated from the escalation rows
// themselves, not the reminder-rule registry, so a tenant without any
// reminder rules is still swept. One tenant's failure never aborts
// the sweep.
func (s *EscalationService) SweepAllTenants(ctx context.Context) {
	log := logger.FromContext(ctx)

	tenantIDs, err := s.tenants.ListEscalationTenantIDs(ctx)
	if err != nil {
		log.Error("Failed to list tenants for expiry sweep", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		tctx := tenant.WithTenantID(ctx, tenantID)
		if _, err := s.ExpireOld(tctx); err != nil {
			log.Error("Expiry sweep failed for tenant",
				zap.String("tenant_id", tenantID),
				zap.Error(err))
		}
	}
}
