package partners

import (
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/google/uuid"
)

// ImportDTO reports the state of a queued price-list import.
type ImportDTO struct {
	ID         uuid.UUID                 `json:"id"`
	ShopID     *uuid.UUID                `json:"shop_id,omitempty"`
	ShopName   string                    `json:"shop_name"`
	Format     enums.CatalogFormat       `json:"format"`
	Status     enums.CatalogImportStatus `json:"status"`
	Error      *string                   `json:"error,omitempty"`
	GoodsCount int                       `json:"goods_count"`
	StartedAt  *time.Time                `json:"started_at,omitempty"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// ShopDTO is the partner's own view of a shop.
type ShopDTO struct {
	ID         uuid.UUID             `json:"id"`
	Name       string                `json:"name"`
	URL        *string               `json:"url,omitempty"`
	State      bool                  `json:"state"`
	Categories []catalog.CategoryDTO `json:"categories"`
}

func importFromModel(row *models.CatalogImport) *ImportDTO {
	return &ImportDTO{
		ID:         row.ID,
		ShopID:     row.ShopID,
		ShopName:   row.ShopName,
		Format:     row.Format,
		Status:     row.Status,
		Error:      row.Error,
		GoodsCount: row.GoodsCount,
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
		CreatedAt:  row.CreatedAt,
	}
}

func shopFromModel(s *models.Shop) ShopDTO {
	dto := ShopDTO{
		ID:         s.ID,
		Name:       s.Name,
		URL:        s.URL,
		State:      s.State,
		Categories: make([]catalog.CategoryDTO, 0, len(s.Categories)),
	}
	for _, c := range s.Categories {
		dto.Categories = append(dto.Categories, catalog.CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return dto
}
