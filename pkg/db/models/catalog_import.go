package models

import (
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogImport records a queued price-list upload and its outcome.
type CatalogImport struct {
	ID         uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	ShopID     *uuid.UUID                `gorm:"column:shop_id;type:uuid"`
	ShopName   string                    `gorm:"column:shop_name;not null"`
	Format     enums.CatalogFormat       `gorm:"column:format;type:text;not null"`
	Status     enums.CatalogImportStatus `gorm:"column:status;type:text;not null;default:pending"`
	Error      *string                   `gorm:"column:error"`
	GoodsCount int                       `gorm:"column:goods_count;not null;default:0"`
	StartedAt  *time.Time                `gorm:"column:started_at"`
	FinishedAt *time.Time                `gorm:"column:finished_at"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CatalogImport) BeforeCreate(*gorm.DB) error { return assignID(&c.ID) }
