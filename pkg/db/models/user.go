package models

import (
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity. Buyers and partners share it.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    string         `gorm:"column:first_name;not null"`
	LastName     string         `gorm:"column:last_name;not null"`
	Company      string         `gorm:"column:company;not null;default:''"`
	Position     string         `gorm:"column:position;not null;default:''"`
	Type         enums.UserType `gorm:"column:type;type:user_type;not null;default:buyer"`
	IsActive     bool           `gorm:"column:is_active;not null;default:false"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error { return assignID(&u.ID) }

// UserToken stores the sha256 of a one-time token mailed to the user.
type UserToken struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Kind      enums.TokenKind `gorm:"column:kind;type:token_kind;not null"`
	TokenHash string          `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt time.Time       `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *UserToken) BeforeCreate(*gorm.DB) error { return assignID(&t.ID) }
