package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveEmail(t *testing.T) {
	reg := newTestEventRegistry(t)

	payloadBytes := mustMarshal(t, payloads.EmailRequestedEvent{
		Template: payloads.TemplateConfirmEmail,
		To:       []string{"buyer@example.com"},
		Subject:  "Confirm",
		Body:     "token",
	})

	for _, aggregate := range []enums.OutboxAggregateType{enums.AggregateUser, enums.AggregateOrder} {
		event := models.OutboxEvent{
			EventType:     enums.EventEmailRequested,
			AggregateType: aggregate,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, payloadBytes),
		}

		resolved, err := reg.Resolve(event)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", aggregate, err)
		}
		if resolved.Descriptor.Topic != "notifications-topic" {
			t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
		}
		payload, ok := resolved.Payload.(*payloads.EmailRequestedEvent)
		if !ok {
			t.Fatalf("unexpected payload type %T", resolved.Payload)
		}
		if payload.To[0] != "buyer@example.com" {
			t.Fatalf("payload mismatch %+v", payload)
		}
		if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
			t.Fatalf("envelope metadata missing: %+v", resolved.Envelope)
		}
	}
}

func TestEventRegistryResolveCatalogImport(t *testing.T) {
	reg := newTestEventRegistry(t)
	importID := uuid.New()

	event := models.OutboxEvent{
		EventType:     enums.EventCatalogImportRequested,
		AggregateType: enums.AggregateCatalogImport,
		AggregateID:   importID,
		Payload: mustEnvelope(t, mustMarshal(t, payloads.CatalogImportRequestedEvent{
			ImportID: importID,
			UserID:   uuid.New(),
			Format:   enums.CatalogFormatJSON,
			Document: []byte(`{"shop":"x"}`),
		})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "catalog-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	if got := resolved.Payload.(*payloads.CatalogImportRequestedEvent).ImportID; got != importID {
		t.Fatalf("expected import %s got %s", importID, got)
	}
}

func TestEventRegistryRejectsBadRows(t *testing.T) {
	reg := newTestEventRegistry(t)
	validEmail := mustEnvelope(t, []byte(`{"to":["a@b.c"]}`))

	tests := []struct {
		name  string
		event models.OutboxEvent
	}{
		{
			name: "unknown event",
			event: models.OutboxEvent{
				EventType:     enums.OutboxEventType("shop_deleted"),
				AggregateType: enums.AggregateUser,
				AggregateID:   uuid.New(),
				Payload:       validEmail,
			},
		},
		{
			name: "aggregate mismatch",
			event: models.OutboxEvent{
				EventType:     enums.EventCatalogImportRequested,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Payload:       validEmail,
			},
		},
		{
			name: "missing aggregate id",
			event: models.OutboxEvent{
				EventType:     enums.EventEmailRequested,
				AggregateType: enums.AggregateUser,
				Payload:       validEmail,
			},
		},
		{
			name: "null payload",
			event: models.OutboxEvent{
				EventType:     enums.EventEmailRequested,
				AggregateType: enums.AggregateUser,
				AggregateID:   uuid.New(),
				Payload:       mustEnvelope(t, []byte("null")),
			},
		},
		{
			name: "broken envelope",
			event: models.OutboxEvent{
				EventType:     enums.EventEmailRequested,
				AggregateType: enums.AggregateUser,
				AggregateID:   uuid.New(),
				Payload:       json.RawMessage(`{"data":`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Resolve(tt.event)
			if err == nil {
				t.Fatal("expected error")
			}
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("expected non-retryable error, got %T", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{CatalogTopic: "c"}); err == nil {
		t.Fatal("expected missing notification topic to fail")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "n"}); err == nil {
		t.Fatal("expected missing catalog topic to fail")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		NotificationTopic: "notifications-topic",
		CatalogTopic:      "catalog-topic",
	})
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func mustEnvelope(t *testing.T, data []byte) json.RawMessage {
	t.Helper()
	return json.RawMessage(mustMarshal(t, outbox.PayloadEnvelope{
		Version:    PayloadVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}))
}
