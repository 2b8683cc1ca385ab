package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Company     string         `json:"company"`
	Position    string         `json:"position"`
	Type        enums.UserType `json:"type"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Company      string
	Position     string
	Type         enums.UserType
	IsActive     bool
}

// UpdateProfileDTO carries a partial account update. Nil fields are left untouched.
type UpdateProfileDTO struct {
	Email     *string
	FirstName *string
	LastName  *string
	Company   *string
	Position  *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Company:     u.Company,
		Position:    u.Position,
		Type:        u.Type,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	userType := c.Type
	if !userType.IsValid() {
		userType = enums.UserTypeBuyer
	}
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Company:      c.Company,
		Position:     c.Position,
		Type:         userType,
		IsActive:     c.IsActive,
	}
}

func (u UpdateProfileDTO) columns() map[string]any {
	updates := map[string]any{}
	if u.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*u.Email))
	}
	if u.FirstName != nil {
		updates["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		updates["last_name"] = *u.LastName
	}
	if u.Company != nil {
		updates["company"] = *u.Company
	}
	if u.Position != nil {
		updates["position"] = *u.Position
	}
	return updates
}
