package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/orders"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultReminderAfter = 72 * time.Hour
	reminderBatchSize    = 200
)

type staleBasketRepo interface {
	FindStaleBaskets(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]orders.StaleBasket, error)
}

type remindMarker interface {
	MarkReminded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) error
}

type reminderNotifier interface {
	Notify(ctx context.Context, tx *gorm.DB, email notifications.Email, aggregate notifications.Aggregate) error
}

// BasketReminderJobParams configure the abandoned-basket reminder.
type BasketReminderJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Orders   orders.Repository
	Notifier reminderNotifier
	After    time.Duration
}

// NewBasketReminderJob emails buyers whose non-empty basket went untouched for After.
// Each basket is reminded once until the buyer changes it again.
func NewBasketReminderJob(params BasketReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	after := params.After
	if after <= 0 {
		after = defaultReminderAfter
	}
	return &basketReminderJob{
		logg:     params.Logger,
		db:       params.DB,
		finder:   params.Orders,
		marker:   ordersMarker{repo: params.Orders},
		notifier: params.Notifier,
		after:    after,
		now:      time.Now,
	}, nil
}

type ordersMarker struct {
	repo orders.Repository
}

func (m ordersMarker) MarkReminded(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) error {
	return m.repo.WithTx(tx).MarkReminded(ctx, orderID, at)
}

type basketReminderJob struct {
	logg     *logger.Logger
	db       txRunner
	finder   staleBasketRepo
	marker   remindMarker
	notifier reminderNotifier
	after    time.Duration
	now      func() time.Time
}

func (j *basketReminderJob) Name() string { return "basket-reminder" }

func (j *basketReminderJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-j.after)

	// Pages are keyed by id so baskets that keep failing cannot crowd out
	// the ones behind them.
	var (
		errs       error
		candidates int
		sent       int
		cursor     uuid.UUID
	)
	for {
		baskets, err := j.finder.FindStaleBaskets(ctx, cutoff, cursor, reminderBatchSize)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("find stale baskets: %w", err))
		}
		candidates += len(baskets)
		for _, basket := range baskets {
			if err := j.remind(ctx, basket, now); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("remind basket %s: %w", basket.OrderID, err))
				continue
			}
			sent++
		}
		if len(baskets) < reminderBatchSize || ctx.Err() != nil {
			break
		}
		cursor = baskets[len(baskets)-1].OrderID
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": candidates,
		"reminded":   sent,
	})
	j.logg.Info(logCtx, "basket reminders queued")
	return errs
}

func (j *basketReminderJob) remind(ctx context.Context, basket orders.StaleBasket, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		email := notifications.BasketReminder(basket.Email, basket.FirstName, basket.Items)
		if err := j.notifier.Notify(ctx, tx, email, notifications.OrderAggregate(basket.OrderID)); err != nil {
			return err
		}
		return j.marker.MarkReminded(ctx, tx, basket.OrderID, now)
	})
}
