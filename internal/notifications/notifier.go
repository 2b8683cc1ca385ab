package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Email is a rendered message waiting to be queued.
type Email struct {
	Template payloads.EmailTemplate
	To       []string
	Subject  string
	Body     string
}

// Aggregate names the entity an email is about.
type Aggregate struct {
	Type enums.OutboxAggregateType
	ID   uuid.UUID
}

// UserAggregate and OrderAggregate are shorthands for the common aggregates.
func UserAggregate(id uuid.UUID) Aggregate {
	return Aggregate{Type: enums.AggregateUser, ID: id}
}

func OrderAggregate(id uuid.UUID) Aggregate {
	return Aggregate{Type: enums.AggregateOrder, ID: id}
}

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}

// Notifier queues emails through the outbox so they commit with the caller's transaction.
type Notifier struct {
	outbox emitter
}

// NewNotifier builds a Notifier on top of the outbox service.
func NewNotifier(outbox emitter) (*Notifier, error) {
	if outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &Notifier{outbox: outbox}, nil
}

// Notify enqueues email inside tx. Delivery happens in the worker.
func (n *Notifier) Notify(ctx context.Context, tx *gorm.DB, email Email, aggregate Aggregate) error {
	to := make([]string, 0, len(email.To))
	for _, addr := range email.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "email recipient required")
	}
	if aggregate.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "notification aggregate id required")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventEmailRequested,
		AggregateType: aggregate.Type,
		AggregateID:   aggregate.ID,
		Data: payloads.EmailRequestedEvent{
			Template: email.Template,
			To:       to,
			Subject:  email.Subject,
			Body:     email.Body,
		},
	}
	if err := n.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue email")
	}
	return nil
}
