package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/detailops/engagement-core/internal/model"
	"github.com/detailops/engagement-core/internal/notify"
	"github.com/detailops/engagement-core/internal/observer"
	"github.com/detailops/engagement-core/internal/storage"
	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/pkg/logger"
)

// SMSSender sends one SMS message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// PushSender delivers a push payload to one dashboard user and reports
// how many subscriptions were reached.
type PushSender interface {
	SendPush(ctx context.Context, userID string, payload notify.PushPayload) (int, error)
}

// NotifyOutcome reports per-channel fan-out results.
type NotifyOutcome struct {
	SMSSent  bool
	PushSent bool
}

// Notifier fans an escalation out to the business owner (SMS) and the
// tenant's admin users (push). Channels are attempted independently;
// neither failure blocks the other.
type Notifier struct {
	sms         SMSSender
	push        PushSender
	customers   storage.CustomerRepo
	ownerPhone  string
	smsTimeout  time.Duration
	pushTimeout time.Duration
}

// NewNotifier creates a notification dispatcher. sms or push may be nil
// when the channel is not configured; ownerPhone may be empty, which
// skips SMS with an error log.
func NewNotifier(sms SMSSender, push PushSender, customers storage.CustomerRepo, ownerPhone string, smsTimeout, pushTimeout time.Duration) *Notifier {
	if smsTimeout <= 0 {
		smsTimeout = 10 * time.Second
	}
	if pushTimeout <= 0 {
		pushTimeout = 10 * time.Second
	}
	return &Notifier{
		sms:         sms,
		push:        push,
		customers:   customers,
		ownerPhone:  ownerPhone,
		smsTimeout:  smsTimeout,
		pushTimeout: pushTimeout,
	}
}

// FanOut attempts both channels and returns what actually went out.
func (n *Notifier) FanOut(ctx context.Context, esc *model.EscalationRequest, customer *model.Customer) NotifyOutcome {
	log := logger.FromContext(ctx)
	tenantID, _ := tenant.FromContext(ctx)

	outcome := NotifyOutcome{}
	outcome.SMSSent = n.sendOwnerSMS(ctx, log, esc, customer)
	observer.IncNotificationOutcome(tenantID, "sms", outcome.SMSSent)

	outcome.PushSent = n.sendAdminPush(ctx, log, esc)
	observer.IncNotificationOutcome(tenantID, "push", outcome.PushSent)

	return outcome
}

func (n *Notifier) sendOwnerSMS(ctx context.Context, log *zap.Logger, esc *model.EscalationRequest, customer *model.Customer) bool {
	if n.sms == nil {
		log.Error("SMS channel not configured, skipping owner notification",
			zap.String("escalation_id", esc.ID))
		return false
	}
	if n.ownerPhone == "" {
		log.Error("BUSINESS_OWNER_PHONE not set, skipping SMS notification",
			zap.String("escalation_id", esc.ID))
		return false
	}

	smsCtx, cancel := context.WithTimeout(ctx, n.smsTimeout)
	defer cancel()

	body := escalationSMSBody(esc, customer)
	if err := n.sms.SendSMS(smsCtx, n.ownerPhone, body); err != nil {
		log.Error("Failed to send escalation SMS",
			zap.String("escalation_id", esc.ID),
			zap.Error(err))
		return false
	}

	log.Info("Escalation SMS sent to owner", zap.String("escalation_id", esc.ID))
	return true
}

// sendAdminPush notifies every admin user; true when at least one
// delivery reached a subscription.
func (n *Notifier) sendAdminPush(ctx context.Context, log *zap.Logger, esc *model.EscalationRequest) bool {
	if n.push == nil {
		log.Warn("Push channel not configured, skipping admin notifications",
			zap.String("escalation_id", esc.ID))
		return false
	}

	adminIDs, err := n.customers.ListAdminUserIDs(ctx)
	if err != nil {
		log.Error("Failed to list admin users for push fan-out",
			zap.String("escalation_id", esc.ID),
			zap.Error(err))
		return false
	}
	if len(adminIDs) == 0 {
		log.Warn("No admin users to notify", zap.String("escalation_id", esc.ID))
		return false
	}

	who := esc.CustomerName
	if who == "" {
		who = esc.CustomerPhone
	}
	payload := notify.PushPayload{
		Title:              "Customer needs a human",
		Body:               fmt.Sprintf("%s asked to speak with someone: %q", who, esc.TriggerPhrase),
		Tag:                "escalation-" + esc.ID,
		RequireInteraction: true,
		Data: notify.PushData{
			Type:           "escalation",
			EscalationID:   esc.ID,
			ConversationID: esc.ConversationID,
			CustomerPhone:  esc.CustomerPhone,
		},
	}

	anySent := false
	for _, userID := range adminIDs {
		pushCtx, cancel := context.WithTimeout(ctx, n.pushTimeout)
		reached, err := n.push.SendPush(pushCtx, userID, payload)
		cancel()
		if err != nil {
			log.Warn("Push delivery failed for admin",
				zap.String("escalation_id", esc.ID),
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		if reached > 0 {
			anySent = true
		}
	}
	return anySent
}

// escalationSMSBody renders the owner alert. The multi-line structure
// is a contract with the owner's muscle memory; keep the line order.
func escalationSMSBody(esc *model.EscalationRequest, customer *model.Customer) string {
	var b strings.Builder
	b.WriteString("\U0001F514 ESCALATION REQUEST\n\n")

	name := esc.CustomerName
	if name == "" {
		name = esc.CustomerPhone
	}
	fmt.Fprintf(&b, "Customer: %s\n", name)
	fmt.Fprintf(&b, "Phone: %s\n", esc.CustomerPhone)
	if esc.CustomerVehicle != "" {
		fmt.Fprintf(&b, "Vehicle: %s\n", esc.CustomerVehicle)
	}
	if customer != nil && customer.VisitCount > 0 {
		fmt.Fprintf(&b, "History: %d visits / $%d lifetime\n",
			customer.VisitCount, customer.LifetimeValueCents/100)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Trigger: %q\n\n", esc.TriggerPhrase)
	b.WriteString("Open the dashboard to respond.")
	return b.String()
}
