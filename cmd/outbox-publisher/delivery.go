package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/registry"
	"gorm.io/gorm"
)

// delivery tracks one claimed row from publish to settlement.
type delivery struct {
	event  models.OutboxEvent
	topic  string
	result publishResult
	err    error
	parked enums.OutboxDLQErrorReason
}

// processBatch claims a batch, hands every routable row to its topic
// publisher without waiting, then collects the acks and settles each row
// inside the same transaction that holds the row locks.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	claimed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox batch: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		claimed = true

		ackCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()

		batch := make([]*delivery, 0, len(events))
		for _, event := range events {
			batch = append(batch, s.send(ackCtx, event))
		}
		for _, d := range batch {
			s.await(ackCtx, d)
			if err := s.settle(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

func (s *Service) send(ctx context.Context, event models.OutboxEvent) *delivery {
	d := &delivery{event: event}
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		d.err, d.parked = err, enums.OutboxDLQReasonUnroutable
		return d
	}
	d.topic = resolved.Descriptor.Topic

	pub := s.publisherFactory(d.topic)
	if pub == nil {
		d.err, d.parked = fmt.Errorf("%w %s", errNoPublisher, d.topic), enums.OutboxDLQReasonNonRetryable
		return d
	}
	d.result = pub.Publish(ctx, &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: messageAttributes(event, resolved.Envelope.EventID),
	})
	if d.result == nil {
		d.err, d.parked = fmt.Errorf("publisher for %s returned no result", d.topic), enums.OutboxDLQReasonNonRetryable
	}
	return d
}

func (s *Service) await(ctx context.Context, d *delivery) {
	if d.result == nil {
		return
	}
	if _, err := d.result.Get(ctx); err != nil {
		d.err = err
		var permanent registry.NonRetryableError
		switch {
		case errors.As(err, &permanent):
			d.parked = enums.OutboxDLQReasonNonRetryable
		case d.event.AttemptCount+1 >= s.maxAttempts:
			d.err = fmt.Errorf("gave up after %d attempts: %w", d.event.AttemptCount+1, err)
			d.parked = enums.OutboxDLQReasonMaxAttempts
		}
	}
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, d *delivery) error {
	eventType := string(d.event.EventType)
	logCtx := s.logg.WithFields(ctx, d.fields())

	switch {
	case d.err == nil:
		if err := s.repo.MarkPublishedTx(tx, d.event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", d.event.ID, err)
		}
		s.metrics.IncPublished(eventType)
		s.logg.Info(logCtx, "outbox event published")

	case d.parked != "":
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox event parked in dlq")
		entry := d.event.DeadLetter(d.parked, d.err, time.Now().UTC())
		if err := s.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("park %s: %w", d.event.ID, err)
		}
		if err := s.repo.MarkTerminalTx(tx, d.event.ID, d.err, s.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", d.event.ID, err)
		}
		s.metrics.IncDeadLettered(eventType, string(d.parked))

	default:
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox publish failed, will retry")
		if err := s.repo.MarkFailedTx(tx, d.event.ID, d.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", d.event.ID, err)
		}
		s.metrics.IncFailed(eventType)
	}
	return nil
}

func (d *delivery) fields() map[string]any {
	fields := map[string]any{
		"outbox_id":      d.event.ID.String(),
		"event_type":     d.event.EventType,
		"aggregate_type": d.event.AggregateType,
		"aggregate_id":   d.event.AggregateID.String(),
		"attempt_count":  d.event.AttemptCount,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.parked != "" {
		fields["error_reason"] = d.parked
	}
	return fields
}

func messageAttributes(event models.OutboxEvent, envelopeID string) map[string]string {
	return map[string]string{
		"event_id":       envelopeID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
}
