package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// withItems preloads everything an order view renders.
func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.ProductInfo.Product.Category").
		Preload("Items.ProductInfo.Shop").
		Preload("Items.ProductInfo.Parameters.Parameter").
		Preload("Contact")
}

func (r *repository) FindBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ? AND state = ?", userID, enums.OrderStateBasket).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateBasket(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order := &models.Order{UserID: userID, State: enums.OrderStateBasket}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) MarkNotified(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("is_sent_notification", true).Error
}

// TouchBasket records basket activity and re-arms the stale basket reminder.
func (r *repository) TouchBasket(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumns(map[string]any{"updated_at": at.UTC(), "reminded_at": nil}).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItemQuantity only matches items of orderID, so foreign ids affect nothing.
func (r *repository) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("order_id = ? AND id IN ?", orderID, itemIDs).
		Delete(&models.OrderItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

// FindOrderDetail loads a placed order of userID.
func (r *repository) FindOrderDetail(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ? AND state <> ?", orderID, userID, enums.OrderStateBasket).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders pages through the caller's placed orders, newest first.
func (r *repository) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND state <> ?", userID, enums.OrderStateBasket)
	return r.page(withItems(query), params)
}

// ListPartnerOrders pages through placed orders holding items of the partner's shops.
// Only the partner's own items are loaded.
func (r *repository) ListPartnerOrders(ctx context.Context, partnerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	db := r.db.WithContext(ctx)
	partnerOffers := db.Model(&models.ProductInfo{}).
		Select("product_infos.id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("shops.user_id = ?", partnerID)
	ordersWithOffers := db.Model(&models.OrderItem{}).
		Select("order_items.order_id").
		Where("order_items.product_info_id IN (?)", partnerOffers)

	query := db.Model(&models.Order{}).
		Where("state <> ? AND id IN (?)", enums.OrderStateBasket, ordersWithOffers).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("product_info_id IN (?)", partnerOffers).Order("order_items.id ASC")
		}).
		Preload("Items.ProductInfo.Product.Category").
		Preload("Items.ProductInfo.Shop").
		Preload("Items.ProductInfo.Parameters.Parameter").
		Preload("Contact")
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params pagination.Params) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	if err := query.Scopes(pagination.Newest("orders", cursor, params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ContactBelongsTo(ctx context.Context, userID, contactID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("id = ? AND user_id = ?", contactID, userID).
		Count(&n).Error
	return n > 0, err
}

// PlaceOrder moves the caller's basket to new. Zero rows means no such basket.
func (r *repository) PlaceOrder(ctx context.Context, userID, orderID, contactID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND state = ?", orderID, userID, enums.OrderStateBasket).
		Updates(map[string]any{
			"contact_id": contactID,
			"state":      enums.OrderStateNew,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) PartnerRecipients(ctx context.Context, orderID uuid.UUID) ([]PartnerRecipient, error) {
	var rows []PartnerRecipient
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("users.id AS user_id, users.email AS email, COUNT(order_items.id) AS items").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Joins("JOIN users ON users.id = shops.user_id").
		Where("order_items.order_id = ?", orderID).
		Group("users.id, users.email").
		Order("users.email ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindStaleBaskets returns non-empty baskets untouched since cutoff that were
// never reminded, ordered by id and starting after the given id (uuid.Nil for
// the first page).
func (r *repository) FindStaleBaskets(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]StaleBasket, error) {
	var rows []StaleBasket
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.id AS order_id, orders.user_id AS user_id, users.email AS email, users.first_name AS first_name, COUNT(order_items.id) AS items").
		Joins("JOIN users ON users.id = orders.user_id").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.state = ? AND orders.reminded_at IS NULL AND orders.updated_at < ?", enums.OrderStateBasket, cutoff.UTC()).
		Where("orders.id > ?", after).
		Group("orders.id, orders.user_id, users.email, users.first_name").
		Order("orders.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkReminded(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("reminded_at", at.UTC()).Error
}
