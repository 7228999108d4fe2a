package jetstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/detailops/engagement-core/pkg/logger"
)

// ClientInterface is the slice of JetStream functionality the ingestion
// consumer needs. Kept as an interface for mocking.
type ClientInterface interface {
	SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error
	SetupConsumer(ctx context.Context, streamName string, consumerConfig *nats.ConsumerConfig) error
	SubscribePull(streamName, subject, consumer string) (*nats.Subscription, error)
	NatsConn() *nats.Conn
	Close()
}

// Client wraps NATS JetStream functionality
type Client struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

var _ ClientInterface = (*Client)(nil)

// NewClient creates a new NATS JetStream client
func NewClient(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, s *nats.Subscription, err error) {
			logger.Log.Error("NATS error", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{nc: nc, js: js}, nil
}

// SetupStream ensures the stream exists with the given configuration.
// An existing stream is updated in place.
func (c *Client) SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error {
	log := logger.FromContext(ctx)

	stream, err := c.js.StreamInfo(streamConfig.Name)
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream info for '%s': %w", streamConfig.Name, err)
	}

	if stream == nil {
		if _, err := c.js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("failed to add stream '%s': %w", streamConfig.Name, err)
		}
		log.Info("Created stream",
			zap.String("name", streamConfig.Name),
			zap.Any("subjects", streamConfig.Subjects))
		return nil
	}

	if _, err := c.js.UpdateStream(streamConfig); err != nil {
		return fmt.Errorf("failed to update stream '%s': %w", streamConfig.Name, err)
	}
	log.Info("Updated stream", zap.String("name", streamConfig.Name))
	return nil
}

// SetupConsumer ensures the durable consumer exists on the stream.
func (c *Client) SetupConsumer(ctx context.Context, streamName string, consumerConfig *nats.ConsumerConfig) error {
	log := logger.FromContext(ctx).With(
		zap.String("stream", streamName),
		zap.String("consumer", consumerConfig.Durable))

	consumer, err := c.js.ConsumerInfo(streamName, consumerConfig.Durable)
	if err != nil && !errors.Is(err, nats.ErrConsumerNotFound) {
		return fmt.Errorf("failed to get consumer info for stream '%s', consumer '%s': %w",
			streamName, consumerConfig.Durable, err)
	}

	if consumer == nil {
		if _, err := c.js.AddConsumer(streamName, consumerConfig); err != nil {
			return fmt.Errorf("failed to add consumer '%s' to stream '%s': %w",
				consumerConfig.Durable, streamName, err)
		}
		log.Info("Created consumer", zap.String("filter_subject", consumerConfig.FilterSubject))
		return nil
	}

	log.Debug("Consumer already exists")
	return nil
}

// SubscribePull creates a pull-based consumer subscription
func (c *Client) SubscribePull(streamName, subject, consumer string) (*nats.Subscription, error) {
	sub, err := c.js.PullSubscribe(
		subject,
		consumer,
		nats.Bind(streamName, consumer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull subscription for stream '%s', consumer '%s': %w",
			streamName, consumer, err)
	}
	return sub, nil
}

// NatsConn returns the underlying *nats.Conn
func (c *Client) NatsConn() *nats.Conn {
	return c.nc
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}
