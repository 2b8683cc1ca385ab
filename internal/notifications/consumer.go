package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/mailer"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"golang.org/x/time/rate"
)

const emailConsumerName = "email-delivery"

// EmailConsumer delivers email_requested events through the mailer.
type EmailConsumer struct {
	sender  mailer.Sender
	limiter *rate.Limiter
}

// NewEmailConsumer builds the worker handler. SendPerSecond <= 0 disables throttling.
func NewEmailConsumer(sender mailer.Sender, cfg config.MailConfig) (*EmailConsumer, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	limit := rate.Inf
	if cfg.SendPerSecond > 0 {
		limit = rate.Limit(cfg.SendPerSecond)
	}
	burst := cfg.SendBurst
	if burst <= 0 {
		burst = 1
	}
	return &EmailConsumer{
		sender:  sender,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

func (c *EmailConsumer) Name() string {
	return emailConsumerName
}

func (c *EmailConsumer) EventType() enums.OutboxEventType {
	return enums.EventEmailRequested
}

// Handle waits for a send slot and hands the message to the mailer.
func (c *EmailConsumer) Handle(ctx context.Context, payload any) error {
	event, ok := payload.(*payloads.EmailRequestedEvent)
	if !ok || event == nil {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unexpected payload %T", payload)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttle: %w", err)
	}
	return c.sender.Send(ctx, mailer.Message{
		To:      event.To,
		Subject: event.Subject,
		Body:    event.Body,
	})
}
