package registry

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
)

// EventDescriptor is the routing information for one event type.
type EventDescriptor struct {
	EventType enums.OutboxEventType
	Topic     string
}

// ResolvedEvent is an outbox row that passed routing checks.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type route struct {
	schema
	topicName string
}

// EventRegistry routes outbox rows to their topics.
type EventRegistry struct {
	routes map[enums.OutboxEventType]route
}

// NewEventRegistry resolves topic names for every known event type and fails
// when one of them is not configured.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	reg := &EventRegistry{routes: make(map[enums.OutboxEventType]route, len(schemas))}
	for _, s := range schemas {
		topic := s.topic(cfg)
		if topic == "" {
			return nil, fmt.Errorf("no topic configured for %s", s.eventType)
		}
		reg.routes[s.eventType] = route{schema: s, topicName: topic}
	}
	return reg, nil
}

// Resolve checks the row against its schema and decodes the payload. Every
// failure is a NonRetryableError since the row itself is malformed.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	rt, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", event.EventType)
	case !rt.accepts(event.AggregateType):
		return nil, permanent("aggregate %s not allowed for %s", event.AggregateType, event.EventType)
	case event.AggregateID == uuid.Nil:
		return nil, permanent("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, permanent("decode envelope: %w", err)
	}
	payload, err := rt.decode(envelope.Data)
	if err != nil {
		return nil, permanent("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{
		Descriptor: EventDescriptor{EventType: rt.eventType, Topic: rt.topicName},
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
