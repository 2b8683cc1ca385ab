package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders, baskets and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	CreateBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	MarkNotified(ctx context.Context, orderID uuid.UUID) error
	TouchBasket(ctx context.Context, orderID uuid.UUID, at time.Time) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (int64, error)
	DeleteItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	CountItems(ctx context.Context, orderID uuid.UUID) (int64, error)

	FindOrderDetail(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListPartnerOrders(ctx context.Context, partnerID uuid.UUID, params pagination.Params) ([]models.Order, error)

	ContactBelongsTo(ctx context.Context, userID, contactID uuid.UUID) (bool, error)
	PlaceOrder(ctx context.Context, userID, orderID, contactID uuid.UUID) (int64, error)
	PartnerRecipients(ctx context.Context, orderID uuid.UUID) ([]PartnerRecipient, error)

	FindStaleBaskets(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]StaleBasket, error)
	MarkReminded(ctx context.Context, orderID uuid.UUID, at time.Time) error
}

// PartnerRecipient is a shop owner with items in a placed order.
type PartnerRecipient struct {
	UserID uuid.UUID
	Email  string
	Items  int
}

// StaleBasket is a basket whose owner has not touched it since the cutoff.
type StaleBasket struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	Email     string
	FirstName string
	Items     int
}
