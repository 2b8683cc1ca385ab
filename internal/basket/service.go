package basket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/orders"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, email notifications.Email, aggregate notifications.Aggregate) error
}

// Service manages the caller's basket, the single order in state basket.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error)
	Add(ctx context.Context, userID uuid.UUID, req AddItemsRequest) (*AddResult, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateItemsRequest) (*UpdateResult, error)
	Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (*DeleteResult, error)
}

type service struct {
	repo     orders.Repository
	tx       txRunner
	notifier notifier
	now      func() time.Time
}

func NewService(repo orders.Repository, tx txRunner, notifier notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, now: time.Now}, nil
}

// Get returns nil when the user has no basket yet.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	basket, err := s.repo.FindBasket(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load basket")
	}
	return orders.FromModel(basket), nil
}

// Add creates one line per item and always queues an order status email.
func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddItemsRequest) (*AddResult, error) {
	lines, err := parseAddItems(req)
	if err != nil {
		return nil, err
	}

	result := &AddResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		basket, err := getOrCreate(ctx, tx, repo, userID)
		if err != nil {
			return err
		}
		if err := checkOffers(ctx, tx, lines); err != nil {
			return err
		}

		for _, line := range lines {
			item := &models.OrderItem{OrderID: basket.ID, ProductInfoID: line.productInfo, Quantity: line.quantity}
			if err := repo.CreateItem(ctx, item); err != nil {
				return itemError(err)
			}
			result.Created++
		}

		user, err := users.NewRepository(tx).FindByID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		email := notifications.OrderStatus(user.Email, basket.ID, basket.State)
		if err := s.notifier.Notify(ctx, tx, email, notifications.OrderAggregate(basket.ID)); err != nil {
			return err
		}
		if !basket.IsSentNotification {
			if err := repo.MarkNotified(ctx, basket.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark basket notified")
			}
		}
		return s.touch(ctx, repo, basket.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes quantities of lines in the caller's basket. Other ids are ignored.
func (s *service) Update(ctx context.Context, userID uuid.UUID, req UpdateItemsRequest) (*UpdateResult, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	type change struct {
		id       uuid.UUID
		quantity int
	}
	changes := make([]change, 0, len(req.Items))
	for i, item := range req.Items {
		id, err := uuid.Parse(item.ID)
		if err != nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid basket item").
				WithDetails(map[string]any{"index": i})
		}
		changes = append(changes, change{id: id, quantity: item.Quantity})
	}

	result := &UpdateResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		basket, err := getOrCreate(ctx, tx, repo, userID)
		if err != nil {
			return err
		}
		for _, c := range changes {
			affected, err := repo.UpdateItemQuantity(ctx, basket.ID, c.id, c.quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update basket item")
			}
			result.Updated += affected
		}
		if result.Updated == 0 {
			return nil
		}
		return s.touch(ctx, repo, basket.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes lines of the caller's basket. An empty id set deletes nothing and reports no count.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (*DeleteResult, error) {
	if len(ids) == 0 {
		return &DeleteResult{}, nil
	}

	var deleted int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		basket, err := getOrCreate(ctx, tx, repo, userID)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteItems(ctx, basket.ID, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete basket items")
		}
		if deleted == 0 {
			return nil
		}
		return s.touch(ctx, repo, basket.ID)
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: &deleted}, nil
}

func (s *service) touch(ctx context.Context, repo orders.Repository, basketID uuid.UUID) error {
	if err := repo.TouchBasket(ctx, basketID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch basket")
	}
	return nil
}

// getOrCreate creates the basket under a savepoint. A unique violation means a
// concurrent request created it first, so the row is fetched again.
func getOrCreate(ctx context.Context, tx *gorm.DB, repo orders.Repository, userID uuid.UUID) (*models.Order, error) {
	basket, err := repo.FindBasket(ctx, userID)
	if err == nil {
		return basket, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load basket")
	}

	err = tx.Transaction(func(inner *gorm.DB) error {
		basket, err = repo.WithTx(inner).CreateBasket(ctx, userID)
		return err
	})
	if err == nil {
		return basket, nil
	}
	if !db.IsUniqueViolation(err, models.BasketUniqueIndex) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create basket")
	}
	basket, err = repo.FindBasket(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload basket")
	}
	return basket, nil
}

type addLine struct {
	productInfo uuid.UUID
	quantity    int
}

func parseAddItems(req AddItemsRequest) ([]addLine, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	seen := map[uuid.UUID]struct{}{}
	lines := make([]addLine, 0, len(req.Items))
	for i, item := range req.Items {
		id, err := uuid.Parse(item.ProductInfo)
		if err != nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid basket item").
				WithDetails(map[string]any{"index": i})
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product listed twice").
				WithDetails(map[string]any{"index": i})
		}
		seen[id] = struct{}{}
		lines = append(lines, addLine{productInfo: id, quantity: item.Quantity})
	}
	return lines, nil
}

// checkOffers rejects unknown offers and offers of closed shops.
func checkOffers(ctx context.Context, tx *gorm.DB, lines []addLine) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.productInfo)
	}
	offers, err := catalog.NewRepository(tx).FindProductInfos(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	known := make(map[uuid.UUID]bool, len(offers))
	for _, o := range offers {
		known[o.ID] = o.Shop != nil && o.Shop.State
	}
	for i, l := range lines {
		open, ok := known[l.productInfo]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "product not found").
				WithDetails(map[string]any{"index": i, "product_info": l.productInfo})
		}
		if !open {
			return pkgerrors.New(pkgerrors.CodeValidation, "shop is not accepting orders").
				WithDetails(map[string]any{"index": i, "product_info": l.productInfo})
		}
	}
	return nil
}

func itemError(err error) error {
	switch {
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is already in the basket")
	case db.IsIntegrityViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid arguments")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add basket item")
	}
}
