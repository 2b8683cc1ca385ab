package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}

// Service exposes partner-only operations.
type Service interface {
	RequestImport(ctx context.Context, userID uuid.UUID, format enums.CatalogFormat, raw []byte) (*ImportDTO, error)
	GetImport(ctx context.Context, userID, importID uuid.UUID) (*ImportDTO, error)
	ListShops(ctx context.Context, userID uuid.UUID) ([]ShopDTO, error)
	SetState(ctx context.Context, userID uuid.UUID, open bool) ([]ShopDTO, error)
}

type service struct {
	db     txRunner
	repo   *catalog.Repository
	outbox emitter
}

// NewService builds the partner service.
func NewService(db txRunner, repo *catalog.Repository, outbox emitter) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{db: db, repo: repo, outbox: outbox}, nil
}

// RequestImport validates the price list up front and queues it for the worker.
func (s *service) RequestImport(ctx context.Context, userID uuid.UUID, format enums.CatalogFormat, raw []byte) (*ImportDTO, error) {
	doc, err := catalog.ParseDocument(format, raw)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = enums.CatalogFormatYAML
	}

	row := &models.CatalogImport{
		UserID:   userID,
		ShopName: doc.Shop,
		Format:   format,
		Status:   enums.CatalogImportPending,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateImport(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create catalog import")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCatalogImportRequested,
			AggregateType: enums.AggregateCatalogImport,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: userID, UserType: enums.UserTypeShop},
			Data: payloads.CatalogImportRequestedEvent{
				ImportID: row.ID,
				UserID:   userID,
				Format:   format,
				Document: raw,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue catalog import")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return importFromModel(row), nil
}

func (s *service) GetImport(ctx context.Context, userID, importID uuid.UUID) (*ImportDTO, error) {
	row, err := s.repo.FindImport(ctx, userID, importID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog import not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog import")
	}
	return importFromModel(row), nil
}

func (s *service) ListShops(ctx context.Context, userID uuid.UUID) ([]ShopDTO, error) {
	rows, err := s.repo.ListShopsByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shops")
	}
	out := make([]ShopDTO, 0, len(rows))
	for i := range rows {
		out = append(out, shopFromModel(&rows[i]))
	}
	return out, nil
}

// SetState opens or closes all of the partner's shops.
func (s *service) SetState(ctx context.Context, userID uuid.UUID, open bool) ([]ShopDTO, error) {
	affected, err := s.repo.SetShopsState(ctx, userID, open)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shop state")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner has no shops yet")
	}
	return s.ListShops(ctx, userID)
}
