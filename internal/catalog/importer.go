package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ImportResult summarizes one applied price list.
type ImportResult struct {
	ShopID     uuid.UUID `json:"shop_id"`
	Categories int       `json:"categories"`
	Goods      int       `json:"goods"`
	Parameters int       `json:"parameters"`
}

// Importer reconciles price lists into the catalog tables.
type Importer struct {
	db   txRunner
	logg *logger.Logger
}

func NewImporter(db txRunner, logg *logger.Logger) (*Importer, error) {
	if db == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Importer{db: db, logg: logg}, nil
}

// Import applies doc for supplierID in a single transaction. Nothing is kept on failure.
func (i *Importer) Import(ctx context.Context, supplierID uuid.UUID, doc *Document) (*ImportResult, error) {
	var result *ImportResult
	err := i.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = i.ImportTx(ctx, tx, supplierID, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ImportTx applies doc using the caller's transaction. A constraint the
// document trips over is reported as a validation error: retrying the same
// document cannot succeed.
func (i *Importer) ImportTx(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID, doc *Document) (*ImportResult, error) {
	result, err := i.apply(ctx, tx, supplierID, doc)
	if err != nil && db.IsIntegrityViolation(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price list conflicts with the stored catalog")
	}
	return result, err
}

func (i *Importer) apply(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID, doc *Document) (*ImportResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list is required")
	}
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier is required")
	}
	tx = tx.WithContext(ctx)

	shop, err := getOrCreateShop(tx, supplierID, doc.Shop)
	if err != nil {
		return nil, err
	}

	for _, c := range doc.Categories {
		if err := getOrCreateCategory(tx, c); err != nil {
			return nil, err
		}
		link := models.ShopCategory{ShopID: shop.ID, CategoryID: c.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link category")
		}
	}

	if err := clearOffers(tx, shop.ID); err != nil {
		return nil, err
	}

	products := map[productKey]uuid.UUID{}
	parameters := map[string]uuid.UUID{}
	result := &ImportResult{ShopID: shop.ID, Categories: len(doc.Categories)}

	for _, good := range doc.Goods {
		key := productKey{name: strings.TrimSpace(good.Name), category: good.Category}
		productID, ok := products[key]
		if !ok {
			product := models.Product{}
			err := tx.Where(models.Product{Name: key.name, CategoryID: key.category}).
				FirstOrCreate(&product).Error
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get or create product")
			}
			productID = product.ID
			products[key] = productID
		}

		info := models.ProductInfo{
			ProductID:  productID,
			ShopID:     shop.ID,
			ExternalID: good.ID,
			Model:      good.Model,
			Quantity:   good.Quantity,
			Price:      good.Price.Decimal,
			PriceRRC:   good.PriceRRC.Decimal,
		}
		if err := tx.Create(&info).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product info")
		}
		result.Goods++

		for name, value := range good.Parameters {
			name = strings.TrimSpace(name)
			paramID, ok := parameters[name]
			if !ok {
				param := models.Parameter{}
				if err := tx.Where(models.Parameter{Name: name}).FirstOrCreate(&param).Error; err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get or create parameter")
				}
				paramID = param.ID
				parameters[name] = paramID
			}
			link := models.ProductParameter{ProductInfoID: info.ID, ParameterID: paramID, Value: string(value)}
			if err := tx.Create(&link).Error; err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product parameter")
			}
			result.Parameters++
		}
	}

	if i.logg != nil {
		logCtx := i.logg.WithFields(ctx, map[string]any{
			"shop_id":    shop.ID.String(),
			"categories": result.Categories,
			"goods":      result.Goods,
			"parameters": result.Parameters,
		})
		i.logg.Info(logCtx, "price list applied")
	}
	return result, nil
}

type productKey struct {
	name     string
	category int64
}

func getOrCreateShop(tx *gorm.DB, supplierID uuid.UUID, name string) (*models.Shop, error) {
	var shop models.Shop
	err := tx.Where("user_id = ? AND name = ?", supplierID, name).First(&shop).Error
	if err == nil {
		return &shop, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}
	shop = models.Shop{UserID: supplierID, Name: name, State: true}
	if err := tx.Create(&shop).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shop")
	}
	return &shop, nil
}

// getOrCreateCategory matches on id. A known id under another name is rejected.
func getOrCreateCategory(tx *gorm.DB, c Category) error {
	var existing models.Category
	err := tx.First(&existing, "id = ?", c.ID).Error
	switch {
	case err == nil:
		if existing.Name != c.Name {
			return pkgerrors.New(pkgerrors.CodeValidation, "category id is already used under another name").
				WithDetails(map[string]string{"categories": fmt.Sprintf("id %d is %q", c.ID, existing.Name)})
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.Category{ID: c.ID, Name: c.Name}
		if err := tx.Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
		}
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
}

// clearOffers drops the shop's previous offers with their parameters and basket lines.
func clearOffers(tx *gorm.DB, shopID uuid.UUID) error {
	offers := tx.Model(&models.ProductInfo{}).Select("id").Where("shop_id = ?", shopID)
	if err := tx.Where("product_info_id IN (?)", offers).Delete(&models.ProductParameter{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product parameters")
	}
	if err := tx.Where("product_info_id IN (?)", offers).Delete(&models.OrderItem{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order items")
	}
	if err := tx.Where("shop_id = ?", shopID).Delete(&models.ProductInfo{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product infos")
	}
	return nil
}
