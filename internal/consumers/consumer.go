// Package consumers runs worker handlers against Pub/Sub subscriptions with
// envelope decoding, per-event idempotency and metrics.
package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/google/uuid"
)

// Handler processes one decoded payload. A retryable error nacks the message;
// a typed non-retryable one (see pkg/errors) acks and drops it.
type Handler interface {
	Name() string
	EventType() enums.OutboxEventType
	Handle(ctx context.Context, payload any) error
}

type decoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

type idempotencyRunner interface {
	Run(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error)
}

// Message is the transport-independent view of a delivery.
type Message struct {
	ID         string
	Attributes map[string]string
	Data       []byte
}

// Params bundles consumer dependencies.
type Params struct {
	Handler     Handler
	Decoders    decoder
	Idempotency idempotencyRunner
	Metrics     *metrics.ConsumerMetrics
	Logger      *logger.Logger
}

// Consumer drives a single Handler.
type Consumer struct {
	handler  Handler
	decoders decoder
	guard    idempotencyRunner
	metrics  *metrics.ConsumerMetrics
	logg     *logger.Logger
}

// New validates params and builds a Consumer.
func New(params Params) (*Consumer, error) {
	if params.Handler == nil {
		return nil, fmt.Errorf("handler required")
	}
	if params.Decoders == nil {
		return nil, fmt.Errorf("decoder registry required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		handler:  params.Handler,
		decoders: params.Decoders,
		guard:    params.Idempotency,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Name returns the handler name.
func (c *Consumer) Name() string {
	return c.handler.Name()
}

// Run receives from subscription until ctx is canceled.
func (c *Consumer) Run(ctx context.Context, subscription *pubsub.Subscriber) error {
	if subscription == nil {
		return fmt.Errorf("%s: subscription required", c.handler.Name())
	}
	return subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		ack := c.Process(ctx, Message{ID: msg.ID, Attributes: msg.Attributes, Data: msg.Data})
		if ack {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Process handles one delivery and reports whether it should be acked.
// Undecodable messages are acked and dropped since redelivery cannot fix them.
func (c *Consumer) Process(ctx context.Context, msg Message) bool {
	start := time.Now()
	name := c.handler.Name()
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"consumer":   name,
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != c.handler.EventType() {
		c.logg.Debug(logCtx, "skipping unhandled event type")
		c.metrics.Observe(name, metrics.OutcomeDropped, time.Since(start))
		return true
	}

	envelope, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		c.metrics.Observe(name, metrics.OutcomeDropped, time.Since(start))
		return true
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		c.metrics.Observe(name, metrics.OutcomeDropped, time.Since(start))
		return true
	}
	logCtx = c.logg.WithEvent(logCtx, envelope.EventID, string(eventType))

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		c.metrics.Observe(name, metrics.OutcomeDropped, time.Since(start))
		return true
	}

	skipped, err := c.guard.Run(logCtx, name, eventID, func(ctx context.Context) error {
		return c.handler.Handle(ctx, payload)
	})
	switch {
	case err != nil && !pkgerrors.IsRetryable(err):
		c.logg.Error(logCtx, "event rejected permanently", err)
		c.metrics.Observe(name, metrics.OutcomeDropped, time.Since(start))
	case err != nil:
		c.logg.Error(logCtx, "event handling failed", err)
		c.metrics.Observe(name, metrics.OutcomeFailure, time.Since(start))
		return false
	case skipped:
		c.logg.Info(logCtx, "event already processed")
		c.metrics.Observe(name, metrics.OutcomeDuplicate, time.Since(start))
	default:
		c.logg.Info(logCtx, "event processed")
		c.metrics.Observe(name, metrics.OutcomeSuccess, time.Since(start))
	}
	return true
}
