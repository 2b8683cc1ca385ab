package catalog

import (
	"context"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows the offer listing. Nil fields are ignored.
type ProductFilter struct {
	ShopID     *uuid.UUID
	CategoryID *int64
	Limit      int
	Cursor     *pagination.Cursor
}

// Repository reads the catalog tables and tracks import requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOpenShops returns shops currently accepting orders.
func (r *Repository) ListOpenShops(ctx context.Context) ([]models.Shop, error) {
	var rows []models.Shop
	if err := r.db.WithContext(ctx).Where("state = ?", true).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListProductInfos pages through offers of open shops ordered by id.
// The caller trims the lookahead row with pagination.Page.
func (r *Repository) ListProductInfos(ctx context.Context, filter ProductFilter) ([]models.ProductInfo, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Select("product_infos.*").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Joins("JOIN products ON products.id = product_infos.product_id").
		Where("shops.state = ?", true)

	if filter.ShopID != nil {
		query = query.Where("product_infos.shop_id = ?", *filter.ShopID)
	}
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	var rows []models.ProductInfo
	err := query.
		Preload("Product.Category").
		Preload("Shop").
		Preload("Parameters.Parameter").
		Scopes(pagination.ByID("product_infos", filter.Cursor, filter.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindProductInfos loads offers by id with their product and shop.
func (r *Repository) FindProductInfos(ctx context.Context, ids []uuid.UUID) ([]models.ProductInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ProductInfo
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Shop").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListShopsByOwner returns every shop owned by the partner.
func (r *Repository) ListShopsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Shop, error) {
	var rows []models.Shop
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("user_id = ?", ownerID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetShopsState opens or closes every shop owned by the partner.
func (r *Repository) SetShopsState(ctx context.Context, ownerID uuid.UUID, open bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("user_id = ?", ownerID).
		Update("state", open)
	return res.RowsAffected, res.Error
}

func (r *Repository) CreateImport(ctx context.Context, row *models.CatalogImport) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FindImport loads an import request owned by userID.
func (r *Repository) FindImport(ctx context.Context, userID, id uuid.UUID) (*models.CatalogImport, error) {
	var row models.CatalogImport
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindImportByID loads an import request regardless of owner.
func (r *Repository) FindImportByID(ctx context.Context, id uuid.UUID) (*models.CatalogImport, error) {
	var row models.CatalogImport
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkImportSucceeded records the applied result. Terminal rows are left untouched.
func (r *Repository) MarkImportSucceeded(ctx context.Context, id uuid.UUID, result *ImportResult, startedAt, finishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CatalogImport{}).
		Where("id = ? AND status = ?", id, enums.CatalogImportPending).
		Updates(map[string]any{
			"status":      enums.CatalogImportSucceeded,
			"shop_id":     result.ShopID,
			"goods_count": result.Goods,
			"error":       nil,
			"started_at":  startedAt.UTC(),
			"finished_at": finishedAt.UTC(),
		}).Error
}

// MarkImportFailed records why the import was rejected.
func (r *Repository) MarkImportFailed(ctx context.Context, id uuid.UUID, reason string, startedAt, finishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CatalogImport{}).
		Where("id = ? AND status = ?", id, enums.CatalogImportPending).
		Updates(map[string]any{
			"status":      enums.CatalogImportFailed,
			"error":       reason,
			"started_at":  startedAt.UTC(),
			"finished_at": finishedAt.UTC(),
		}).Error
}
