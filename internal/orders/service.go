package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, email notifications.Email, aggregate notifications.Aggregate) error
}

// Service covers the placed side of the order lifecycle.
type Service interface {
	Place(ctx context.Context, userID, orderID, contactID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, notifier notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier}, nil
}

// Place turns the caller's basket into a new order. Any failure leaves the basket untouched.
func (s *service) Place(ctx context.Context, userID, orderID, contactID uuid.UUID) (*OrderDTO, error) {
	if orderID == uuid.Nil || contactID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and contact are required")
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		owned, err := repo.ContactBelongsTo(ctx, userID, contactID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check contact")
		}
		if !owned {
			return pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}

		items, err := repo.CountItems(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count order items")
		}

		affected, err := repo.PlaceOrder(ctx, userID, orderID, contactID)
		if err != nil {
			if db.IsIntegrityViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid arguments")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "basket not found")
		}
		if items == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "basket is empty")
		}

		placed, err = repo.FindOrderDetail(ctx, userID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		return s.notifyPlaced(ctx, tx, repo, userID, placed)
	})
	if err != nil {
		return nil, err
	}
	return FromModel(placed), nil
}

func (s *service) notifyPlaced(ctx context.Context, tx *gorm.DB, repo Repository, userID uuid.UUID, order *models.Order) error {
	buyer, err := users.NewRepository(tx).FindByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}
	aggregate := notifications.OrderAggregate(order.ID)
	if err := s.notifier.Notify(ctx, tx, notifications.OrderStatus(buyer.Email, order.ID, order.State), aggregate); err != nil {
		return err
	}

	partners, err := repo.PartnerRecipients(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load partners")
	}
	for _, p := range partners {
		if err := s.notifier.Notify(ctx, tx, notifications.PartnerNewOrder(p.Email, order.ID, p.Items), aggregate); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOrders(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildList(rows, params), nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrderDetail(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return FromModel(order), nil
}

// ListForPartner totals only the partner's own items in each order.
func (s *service) ListForPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPartnerOrders(ctx, partnerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list partner orders")
	}
	return buildList(rows, params), nil
}

func buildList(rows []models.Order, params pagination.Params) *OrderList {
	rows, next := pagination.Page(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		list.Orders = append(list.Orders, *FromModel(&rows[i]))
	}
	return list
}

func validateCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}
