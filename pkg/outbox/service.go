package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

const currentPayloadVersion = 1

// ErrInvalidEvent is returned for events that could never be routed.
var ErrInvalidEvent = errors.New("invalid outbox event")

// DomainEvent is an outbox row before serialization. Data becomes the envelope payload.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("%w: event type %q", ErrInvalidEvent, e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("%w: aggregate type %q", ErrInvalidEvent, e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return fmt.Errorf("%w: aggregate id required", ErrInvalidEvent)
	case e.Version < 0:
		return fmt.Errorf("%w: version %d", ErrInvalidEvent, e.Version)
	}
	return nil
}

// seal wraps the event data in a versioned envelope with a fresh event id.
func (e DomainEvent) seal(now time.Time) (models.OutboxEvent, PayloadEnvelope, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode %s payload: %w", e.EventType, err)
	}
	envelope := PayloadEnvelope{
		Version:    e.Version,
		EventID:    uuid.NewString(),
		OccurredAt: e.OccurredAt,
		Actor:      e.Actor,
		Data:       data,
	}
	if envelope.Version == 0 {
		envelope.Version = currentPayloadVersion
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = now
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode %s envelope: %w", e.EventType, err)
	}
	return models.OutboxEvent{
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Payload:       body,
	}, envelope, nil
}

// Service stages domain events next to the business rows that caused them.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}
}

// Emit writes the events inside tx so they commit or roll back with the
// business change. Either every event is staged or none is.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, events ...DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	now := s.now()
	rows := make([]models.OutboxEvent, 0, len(events))
	envelopes := make([]PayloadEnvelope, 0, len(events))
	for _, event := range events {
		if err := event.validate(); err != nil {
			return err
		}
		row, envelope, err := event.seal(now)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		envelopes = append(envelopes, envelope)
	}
	if err := s.repo.InsertTx(tx, rows...); err != nil {
		return fmt.Errorf("stage outbox events: %w", err)
	}

	if s.logg == nil {
		return nil
	}
	for i, row := range rows {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelopes[i].EventID,
			"event_type":     row.EventType,
			"aggregate_type": row.AggregateType,
			"aggregate_id":   row.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}
