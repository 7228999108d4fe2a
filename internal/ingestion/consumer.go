// Package ingestion consumes inbound customer messages from JetStream
// and feeds the escalation path. This is the reactive half of the core:
// one fetch loop, single-attempt processing, no DLQ.
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/detailops/engagement-core/internal/apperrors"
	"github.com/detailops/engagement-core/internal/classifier"
	"github.com/detailops/engagement-core/internal/jetstream"
	"github.com/detailops/engagement-core/internal/tenant"
	"github.com/detailops/engagement-core/internal/usecase"
	"github.com/detailops/engagement-core/internal/validator"
	"github.com/detailops/engagement-core/pkg/logger"
)

// InboundMessageEvent is the wire payload published by the messaging
// platform for every inbound customer message.
type InboundMessageEvent struct {
	TenantID       string `json:"tenant_id" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"required"`
	CustomerID     string `json:"customer_id,omitempty"`
	CustomerPhone  string `json:"customer_phone" validate:"required,phone"`
	MessageID      string `json:"message_id,omitempty"`
	Text           string `json:"text" validate:"required"`
}

// Config holds the stream/consumer wiring for the ingestion loop.
type Config struct {
	Stream        string
	Consumer      string
	Subject       string
	AckWait       time.Duration
	MaxAckPending int
	MaxAgeDays    int
	FetchBatch    int
	FetchTimeout  time.Duration
}

// Consumer pulls inbound message events, classifies them, and opens
// escalations on a match. No match is the normal case.
type Consumer struct {
	js          jetstream.ClientInterface
	escalations *usecase.EscalationService
	cfg         Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer creates the ingestion consumer.
func NewConsumer(js jetstream.ClientInterface, escalations *usecase.EscalationService, cfg Config) *Consumer {
	if cfg.FetchBatch <= 0 {
		cfg.FetchBatch = 10
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
	}
	if cfg.MaxAckPending <= 0 {
		cfg.MaxAckPending = 1000
	}
	return &Consumer{
		js:          js,
		escalations: escalations,
		cfg:         cfg,
	}
}

// Start ensures the stream and durable consumer exist and launches the
// fetch loop.
func (c *Consumer) Start(ctx context.Context) error {
	maxAge := time.Duration(c.cfg.MaxAgeDays) * 24 * time.Hour
	if err := c.js.SetupStream(ctx, &nats.StreamConfig{
		Name:      c.cfg.Stream,
		Subjects:  []string{c.cfg.Subject},
		Retention: nats.LimitsPolicy,
		MaxAge:    maxAge,
		Storage:   nats.FileStorage,
	}); err != nil {
		return fmt.Errorf("%w: stream setup: %w", apperrors.ErrNATS, err)
	}

	// MaxDeliver 1: a failed message is never redelivered. Escalation is
	// best-effort per message; the customer can always ask again.
	if err := c.js.SetupConsumer(ctx, c.cfg.Stream, &nats.ConsumerConfig{
		Durable:       c.cfg.Consumer,
		FilterSubject: c.cfg.Subject,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       c.cfg.AckWait,
		MaxAckPending: c.cfg.MaxAckPending,
		MaxDeliver:    1,
	}); err != nil {
		return fmt.Errorf("%w: consumer setup: %w", apperrors.ErrNATS, err)
	}

	sub, err := c.js.SubscribePull(c.cfg.Stream, c.cfg.Subject, c.cfg.Consumer)
	if err != nil {
		return fmt.Errorf("%w: pull subscription: %w", apperrors.ErrNATS, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.fetchLoop(loopCtx, sub)

	logger.FromContext(ctx).Info("Ingestion consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("subject", c.cfg.Subject))
	return nil
}

// Stop cancels the fetch loop and waits for in-flight messages.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Consumer) fetchLoop(ctx context.Context, sub *nats.Subscription) {
	defer c.wg.Done()
	log := logger.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			if err := sub.Drain(); err != nil {
				log.Warn("Failed to drain ingestion subscription", zap.Error(err))
			}
			return
		default:
		}

		msgs, err := sub.Fetch(c.cfg.FetchBatch, nats.MaxWait(c.cfg.FetchTimeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue // Empty stream, keep polling
			}
			if ctx.Err() != nil {
				return
			}
			log.Error("Fetch from ingestion consumer failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes one inbound message and always ACKs it.
// Malformed payloads and downstream failures are logged, never
// redelivered.
func (c *Consumer) handleMessage(ctx context.Context, msg *nats.Msg) {
	defer func() {
		if err := msg.Ack(); err != nil {
			logger.FromContext(ctx).Warn("Failed to ACK inbound message", zap.Error(err))
		}
	}()

	log := logger.FromContext(ctx)

	var event InboundMessageEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error("Malformed inbound message payload, dropping",
			zap.ByteString("data", msg.Data),
			zap.Error(err))
		return
	}
	if err := validator.Validate(&event); err != nil {
		log.Error("Invalid inbound message payload, dropping",
			zap.String("conversation_id", event.ConversationID),
			zap.Error(err))
		return
	}

	match := classifier.Classify(event.Text)
	if match == nil {
		return
	}

	msgCtx := tenant.WithTenantID(ctx, event.TenantID)
	msgCtx = tenant.WithRequestID(msgCtx, uuid.NewString())
	log = logger.FromContext(msgCtx).With(
		zap.String("tenant_id", event.TenantID),
		zap.String("conversation_id", event.ConversationID),
	)
	msgCtx = logger.WithLogger(msgCtx, log)

	log.Info("Escalation trigger matched",
		zap.String("tier", string(match.Tier)),
		zap.String("phrase", match.Phrase))

	if _, err := c.escalations.Create(msgCtx, usecase.CreateEscalationInput{
		ConversationID:   event.ConversationID,
		CustomerID:       event.CustomerID,
		CustomerPhone:    event.CustomerPhone,
		TriggerPhrase:    match.Phrase,
		TriggerTier:      string(match.Tier),
		TriggerMessageID: event.MessageID,
	}); err != nil {
		// Single-attempt contract: log and move on, the message is ACKed.
		log.Error("Failed to create escalation from inbound message", zap.Error(err))
	}
}
