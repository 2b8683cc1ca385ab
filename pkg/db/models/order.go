package models

import (
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BasketUniqueIndex guarantees at most one basket-state order per user.
const BasketUniqueIndex = "ux_orders_user_basket"

// Order is a user's basket until placed. CreatedAt is the order timestamp.
type Order struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:ux_orders_user_basket,where:state = 'basket'"`
	State              enums.OrderState `gorm:"column:state;type:order_state;not null;default:basket"`
	ContactID          *uuid.UUID       `gorm:"column:contact_id;type:uuid"`
	IsSentNotification bool             `gorm:"column:is_sent_notification;not null;default:false"`
	RemindedAt         *time.Time       `gorm:"column:reminded_at"`
	Contact            *Contact         `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL"`
	Items              []OrderItem      `gorm:"foreignKey:OrderID"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error { return assignID(&o.ID) }

type OrderItem struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID    `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_items_order_product,priority:1"`
	ProductInfoID uuid.UUID    `gorm:"column:product_info_id;type:uuid;not null;index;uniqueIndex:ux_order_items_order_product,priority:2"`
	Quantity      int          `gorm:"column:quantity;not null"`
	Order         *Order       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ProductInfo   *ProductInfo `gorm:"foreignKey:ProductInfoID;constraint:OnDelete:CASCADE"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error { return assignID(&i.ID) }
