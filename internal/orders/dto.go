package orders

import (
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/internal/contacts"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemDTO is one basket or order line.
type OrderItemDTO struct {
	ID          uuid.UUID               `json:"id"`
	Quantity    int                     `json:"quantity"`
	ProductInfo *catalog.ProductInfoDTO `json:"product_info,omitempty"`
	Subtotal    decimal.Decimal         `json:"subtotal"`
}

// OrderDTO renders a basket or a placed order with its read-time total.
type OrderDTO struct {
	ID        uuid.UUID            `json:"id"`
	State     enums.OrderState     `json:"state"`
	CreatedAt time.Time            `json:"created_at"`
	Contact   *contacts.ContactDTO `json:"contact,omitempty"`
	Items     []OrderItemDTO       `json:"items"`
	Total     decimal.Decimal      `json:"total"`
}

// OrderList wraps a page of orders plus the next cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// PlaceOrderRequest is the body of POST /orders.
type PlaceOrderRequest struct {
	ID      string `json:"id" validate:"required,uuid"`
	Contact string `json:"contact" validate:"required,uuid"`
}

// Total sums quantity times the current unit price of every loaded item.
func Total(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.ProductInfo == nil {
			continue
		}
		total = total.Add(item.ProductInfo.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// FromModel maps an order with preloaded items.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:        o.ID,
		State:     o.State,
		CreatedAt: o.CreatedAt,
		Contact:   contacts.FromModel(o.Contact),
		Items:     make([]OrderItemDTO, 0, len(o.Items)),
		Total:     Total(o.Items),
	}
	for _, item := range o.Items {
		line := OrderItemDTO{ID: item.ID, Quantity: item.Quantity, Subtotal: decimal.Zero}
		if item.ProductInfo != nil {
			info := catalog.ProductInfoFromModel(item.ProductInfo)
			line.ProductInfo = &info
			line.Subtotal = item.ProductInfo.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
