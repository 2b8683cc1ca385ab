package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
)

// EmailTemplate names the message a notification renders.
type EmailTemplate string

const (
	TemplateConfirmEmail    EmailTemplate = "confirm_email"
	TemplatePasswordReset   EmailTemplate = "password_reset"
	TemplateOrderStatus     EmailTemplate = "order_status"
	TemplatePartnerNewOrder EmailTemplate = "partner_new_order"
	TemplateBasketReminder  EmailTemplate = "basket_reminder"
)

// EmailRequestedEvent asks the worker to deliver one rendered email.
type EmailRequestedEvent struct {
	Template EmailTemplate `json:"template"`
	To       []string      `json:"to"`
	Subject  string        `json:"subject"`
	Body     string        `json:"body"`
}

// CatalogImportRequestedEvent carries a validated price list to the importer.
type CatalogImportRequestedEvent struct {
	ImportID uuid.UUID           `json:"import_id"`
	UserID   uuid.UUID           `json:"user_id"`
	Format   enums.CatalogFormat `json:"format"`
	Document []byte              `json:"document"`
}
