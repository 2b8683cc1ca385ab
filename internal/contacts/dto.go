package contacts

import (
	"strings"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/google/uuid"
)

type ContactDTO struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	House     string    `json:"house"`
	Structure string    `json:"structure"`
	Building  string    `json:"building"`
	Apartment string    `json:"apartment"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateContactRequest is the body of POST /contacts.
type CreateContactRequest struct {
	City      string `json:"city" validate:"required,max=50"`
	Street    string `json:"street" validate:"required,max=100"`
	House     string `json:"house" validate:"max=15"`
	Structure string `json:"structure" validate:"max=15"`
	Building  string `json:"building" validate:"max=15"`
	Apartment string `json:"apartment" validate:"max=15"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

// UpdateContactRequest carries a partial update. Nil fields are kept.
type UpdateContactRequest struct {
	City      *string `json:"city" validate:"omitempty,min=1,max=50"`
	Street    *string `json:"street" validate:"omitempty,min=1,max=100"`
	House     *string `json:"house" validate:"omitempty,max=15"`
	Structure *string `json:"structure" validate:"omitempty,max=15"`
	Building  *string `json:"building" validate:"omitempty,max=15"`
	Apartment *string `json:"apartment" validate:"omitempty,max=15"`
	Phone     *string `json:"phone" validate:"omitempty,min=1,max=20"`
}

func FromModel(c *models.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:        c.ID,
		City:      c.City,
		Street:    c.Street,
		House:     c.House,
		Structure: c.Structure,
		Building:  c.Building,
		Apartment: c.Apartment,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

func (r CreateContactRequest) toModel(userID uuid.UUID) *models.Contact {
	return &models.Contact{
		UserID:    userID,
		City:      strings.TrimSpace(r.City),
		Street:    strings.TrimSpace(r.Street),
		House:     strings.TrimSpace(r.House),
		Structure: strings.TrimSpace(r.Structure),
		Building:  strings.TrimSpace(r.Building),
		Apartment: strings.TrimSpace(r.Apartment),
		Phone:     strings.TrimSpace(r.Phone),
	}
}

func (r UpdateContactRequest) columns() map[string]any {
	updates := map[string]any{}
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	set("city", r.City)
	set("street", r.Street)
	set("house", r.House)
	set("structure", r.Structure)
	set("building", r.Building)
	set("apartment", r.Apartment)
	set("phone", r.Phone)
	return updates
}
