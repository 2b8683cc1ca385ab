package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/orderhub-backend/api/responses"
	"github.com/angelmondragon/orderhub-backend/api/validators"
	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
)

// CatalogBrowser is the read side of the catalog exposed to buyers.
type CatalogBrowser interface {
	ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error)
	ListShops(ctx context.Context) ([]catalog.ShopDTO, error)
	ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductPage, error)
}

func CatalogCategories(svc CatalogBrowser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		list, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CatalogShops lists shops currently accepting orders.
func CatalogShops(svc CatalogBrowser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		list, err := svc.ListShops(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CatalogProducts pages through offers of open shops, optionally filtered by
// shop_id and category_id.
func CatalogProducts(svc CatalogBrowser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		shopID, err := validators.ParseQueryUUID(r, "shop_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryInt64(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			ShopID:     shopID,
			CategoryID: categoryID,
			Limit:      limit,
			Cursor:     r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
