package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/detailops/engagement-core/internal/observer"
	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/pkg/logger"
	"github.com/detailops/engagement-core/pkg/utils"
)

// CompletionProvider produces one short completion for a prompt pair.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Composer builds reminder message content. AI-generated when a
// provider is configured, deterministic templates otherwise, and always
// ends with action links. Compose never errors: every failure path
// lands on a template.
type Composer struct {
	ai            CompletionProvider
	maxChars      int
	bookingURL    string
	actionBaseURL string
}

// NewComposer creates a composer. ai may be nil for template-only
// operation.
func NewComposer(ai CompletionProvider, maxChars int, bookingURL, actionBaseURL string) *Composer {
	if maxChars <= 0 {
		maxChars = 160
	}
	return &Composer{
		ai:            ai,
		maxChars:      maxChars,
		bookingURL:    bookingURL,
		actionBaseURL: actionBaseURL,
	}
}

const composerSystemPrompt = "You write one friendly SMS reminder for an auto detailing shop. " +
	"Mention the customer's first name, the service, and how long it has been. " +
	"One message only, no links, no emojis, 160 characters maximum."

// Compose returns the full message for a candidate. The jobID
// parameterizes the action links, so the job row must exist first.
func (c *Composer) Compose(ctx context.Context, cand Candidate, jobID string) string {
	log := logger.FromContext(ctx)
	tenantID, _ := tenant.FromContext(ctx)

	body, route := c.composeBody(ctx, log, cand)
	observer.IncComposeRoute(tenantID, route)

	return body + c.actionLinks(jobID, cand.Customer.ID)
}

// FallbackMessage returns the template body with links, bypassing the
// provider. Used as placeholder content before the AI pass runs.
func (c *Composer) FallbackMessage(cand Candidate, jobID string) string {
	return c.templateBody(cand) + c.actionLinks(jobID, cand.Customer.ID)
}

func (c *Composer) composeBody(ctx context.Context, log *zap.Logger, cand Candidate) (string, string) {
	if c.ai == nil {
		return c.templateBody(cand), "template"
	}

	userPrompt := fmt.Sprintf("Customer first name: %s. Service: %s. Days since last visit: %d.",
		firstName(cand.Customer.Name), serviceLabel(cand.ServiceName), cand.DaysSinceService)

	body, err := c.ai.Complete(ctx, composerSystemPrompt, userPrompt)
	if err != nil {
		log.Warn("AI composition failed, using template",
			zap.String("customer_id", cand.Customer.ID),
			zap.Error(err))
		return c.templateBody(cand), "template"
	}

	body = strings.TrimSpace(body)
	if body == "" {
		log.Warn("AI returned empty completion, using template",
			zap.String("customer_id", cand.Customer.ID))
		return c.templateBody(cand), "template"
	}
	if len(body) > c.maxChars {
		body = utils.TruncateWithEllipsis(body, c.maxChars)
	}
	return body, "ai"
}

// templateBody picks a template by service-name keyword and fully
// interpolates it. No raw placeholder may survive.
func (c *Composer) templateBody(cand Candidate) string {
	name := firstName(cand.Customer.Name)
	service := serviceLabel(cand.ServiceName)
	days := cand.DaysSinceService

	lower := strings.ToLower(cand.ServiceName)
	var body string
	switch {
	case strings.Contains(lower, "maintenance"):
		body = fmt.Sprintf("Hi %s! It's been %d days since your last maintenance detail. A quick refresh will keep that finish protected.", name, days)
	case strings.Contains(lower, "full") || strings.Contains(lower, "complete"):
		body = fmt.Sprintf("Hi %s! Your %s was %d days ago. Time for another round to keep your vehicle looking its best.", name, service, days)
	case strings.Contains(lower, "ceramic") || strings.Contains(lower, "coating"):
		body = fmt.Sprintf("Hi %s! It's been %d days since your ceramic coating service. An inspection and topper will keep it performing.", name, days)
	default:
		body = fmt.Sprintf("Hi %s! It's been %d days since your last %s with us. We'd love to get you back on the books.", name, days, service)
	}

	if len(body) > c.maxChars {
		body = utils.TruncateWithEllipsis(body, c.maxChars)
	}
	return body
}

func (c *Composer) actionLinks(jobID, customerID string) string {
	return fmt.Sprintf("\nBook: %s\nSnooze: %s/reminders/snooze?job=%s&customer=%s\nStop: %s/reminders/opt-out?job=%s&customer=%s",
		c.bookingURL,
		c.actionBaseURL, jobID, customerID,
		c.actionBaseURL, jobID, customerID)
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func serviceLabel(serviceName string) string {
	if strings.TrimSpace(serviceName) == "" {
		return "detail service"
	}
	return serviceName
}
