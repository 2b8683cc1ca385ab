package catalog

import (
	"context"
	"sort"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
	"github.com/angelmondragon/orderhub-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ShopDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	URL   *string   `json:"url,omitempty"`
	State bool      `json:"state"`
}

type ProductDTO struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Category CategoryDTO `json:"category"`
}

type ParameterDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductInfoDTO is one shop offer as shown to buyers.
type ProductInfoDTO struct {
	ID         uuid.UUID       `json:"id"`
	ExternalID int64           `json:"external_id"`
	Model      string          `json:"model"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	PriceRRC   decimal.Decimal `json:"price_rrc"`
	Product    *ProductDTO     `json:"product,omitempty"`
	Shop       *ShopDTO        `json:"shop,omitempty"`
	Parameters []ParameterDTO  `json:"parameters"`
}

type ProductPage = types.Page[ProductInfoDTO]

// ListProductsInput carries raw browse parameters from the transport.
type ListProductsInput struct {
	ShopID     *uuid.UUID
	CategoryID *int64
	Limit      int
	Cursor     string
}

type browseRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListOpenShops(ctx context.Context) ([]models.Shop, error)
	ListProductInfos(ctx context.Context, filter ProductFilter) ([]models.ProductInfo, error)
}

// Service serves the public catalog.
type Service struct {
	repo browseRepository
}

func NewService(repo browseRepository) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (s *Service) ListShops(ctx context.Context) ([]ShopDTO, error) {
	rows, err := s.repo.ListOpenShops(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shops")
	}
	out := make([]ShopDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ShopFromModel(&rows[i]))
	}
	return out, nil
}

// ListProducts returns offers of open shops, filtered and cursor paginated.
func (s *Service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListProductInfos(ctx, ProductFilter{
		ShopID:     input.ShopID,
		CategoryID: input.CategoryID,
		Limit:      input.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	rows, next := pagination.Page(rows, input.Limit, func(p models.ProductInfo) pagination.Cursor {
		return pagination.Cursor{ID: p.ID}
	})
	page := &ProductPage{Items: make([]ProductInfoDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Items = append(page.Items, ProductInfoFromModel(&rows[i]))
	}
	return page, nil
}

func ShopFromModel(s *models.Shop) ShopDTO {
	return ShopDTO{ID: s.ID, Name: s.Name, URL: s.URL, State: s.State}
}

// ProductInfoFromModel maps an offer with whatever associations were loaded.
func ProductInfoFromModel(p *models.ProductInfo) ProductInfoDTO {
	dto := ProductInfoDTO{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Model:      p.Model,
		Quantity:   p.Quantity,
		Price:      p.Price,
		PriceRRC:   p.PriceRRC,
		Parameters: make([]ParameterDTO, 0, len(p.Parameters)),
	}
	if p.Product != nil {
		product := &ProductDTO{ID: p.Product.ID, Name: p.Product.Name, Category: CategoryDTO{ID: p.Product.CategoryID}}
		if p.Product.Category != nil {
			product.Category.Name = p.Product.Category.Name
		}
		dto.Product = product
	}
	if p.Shop != nil {
		shop := ShopFromModel(p.Shop)
		dto.Shop = &shop
	}
	for _, pp := range p.Parameters {
		param := ParameterDTO{Value: pp.Value}
		if pp.Parameter != nil {
			param.Name = pp.Parameter.Name
		}
		dto.Parameters = append(dto.Parameters, param)
	}
	sort.Slice(dto.Parameters, func(i, j int) bool { return dto.Parameters[i].Name < dto.Parameters[j].Name })
	return dto
}
