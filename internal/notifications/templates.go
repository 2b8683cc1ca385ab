package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

const signature = "\n\n-- \nOrderHub"

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

// ConfirmEmail carries the registration confirmation token.
func ConfirmEmail(to, firstName, token string) Email {
	return Email{
		Template: payloads.TemplateConfirmEmail,
		To:       []string{to},
		Subject:  fmt.Sprintf("Confirm your email %s", to),
		Body: fmt.Sprintf("%s\n\nUse this token to confirm your account:\n\n%s%s",
			greeting(firstName), token, signature),
	}
}

// PasswordReset carries a password reset token.
func PasswordReset(to, firstName, token string) Email {
	return Email{
		Template: payloads.TemplatePasswordReset,
		To:       []string{to},
		Subject:  fmt.Sprintf("Password Reset Token for %s", to),
		Body: fmt.Sprintf("%s\n\nUse this token to choose a new password:\n\n%s\n\nIgnore this message if you did not ask for a reset.%s",
			greeting(firstName), token, signature),
	}
}

// OrderStatus tells a buyer their order changed.
func OrderStatus(to string, orderID uuid.UUID, state enums.OrderState) Email {
	body := "Your basket was updated."
	if state.IsPlaced() {
		body = fmt.Sprintf("Order %s is now %s.", orderID, state)
	}
	return Email{
		Template: payloads.TemplateOrderStatus,
		To:       []string{to},
		Subject:  "Order status update",
		Body:     body + signature,
	}
}

// PartnerNewOrder tells a partner a placed order contains their goods.
func PartnerNewOrder(to string, orderID uuid.UUID, items int) Email {
	return Email{
		Template: payloads.TemplatePartnerNewOrder,
		To:       []string{to},
		Subject:  fmt.Sprintf("New order %s", orderID),
		Body:     fmt.Sprintf("Order %s contains %d of your items and awaits confirmation.%s", orderID, items, signature),
	}
}

// BasketReminder nudges a buyer about a basket left untouched.
func BasketReminder(to, firstName string, items int) Email {
	return Email{
		Template: payloads.TemplateBasketReminder,
		To:       []string{to},
		Subject:  "Your basket is waiting",
		Body: fmt.Sprintf("%s\n\nYou still have %d item(s) in your basket. Place the order before stock runs out.%s",
			greeting(firstName), items, signature),
	}
}
