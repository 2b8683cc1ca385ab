package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is a partner storefront. State toggles whether it accepts orders.
type Shop struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_shops_user_name,priority:1"`
	Name       string     `gorm:"column:name;not null;uniqueIndex:ux_shops_user_name,priority:2"`
	URL        *string    `gorm:"column:url"`
	State      bool       `gorm:"column:state;not null;default:true"`
	Categories []Category `gorm:"many2many:shop_categories;joinForeignKey:ShopID;joinReferences:CategoryID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error { return assignID(&s.ID) }

// Category ids are assigned by supplier documents.
type Category struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"column:name;not null"`
}

// ShopCategory is the shop_categories join row.
type ShopCategory struct {
	ShopID     uuid.UUID `gorm:"column:shop_id;type:uuid;primaryKey"`
	CategoryID int64     `gorm:"column:category_id;primaryKey"`
}

func (ShopCategory) TableName() string { return "shop_categories" }
