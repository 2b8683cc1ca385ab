package main

import (
	"context"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
)

type pinger interface {
	Ping(context.Context) error
}

type runner interface {
	Name() string
	Run(ctx context.Context, subscription *gcppubsub.Subscriber) error
}

// Binding attaches a consumer to the subscription it drains.
type Binding struct {
	Consumer     runner
	Subscription *gcppubsub.Subscriber
}

type ServiceParams struct {
	Logger      *logger.Logger
	DB          pinger
	Redis       pinger
	PubSub      pinger
	Bindings    []Binding
	MetricsAddr string
	Gatherer    prometheus.Gatherer
}

// Service runs every consumer binding plus the metrics listener. The first
// failure cancels the rest.
type Service struct {
	logg        *logger.Logger
	db          pinger
	redis       pinger
	pubsub      pinger
	bindings    []Binding
	metricsAddr string
	gatherer    prometheus.Gatherer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if len(params.Bindings) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for _, b := range params.Bindings {
		if b.Consumer == nil || b.Subscription == nil {
			return nil, errors.New("consumer binding requires a consumer and a subscription")
		}
	}
	return &Service{
		logg:        params.Logger,
		db:          params.DB,
		redis:       params.Redis,
		pubsub:      params.PubSub,
		bindings:    params.Bindings,
		metricsAddr: params.MetricsAddr,
		gatherer:    params.Gatherer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, b := range s.bindings {
		b := b
		group.Go(func() error {
			consumerCtx := s.logg.WithField(groupCtx, "consumer", b.Consumer.Name())
			s.logg.Info(consumerCtx, "consumer started")
			if err := b.Consumer.Run(consumerCtx, b.Subscription); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", b.Consumer.Name(), err)
			}
			return groupCtx.Err()
		})
	}
	if s.metricsAddr != "" {
		group.Go(func() error {
			return metrics.Serve(groupCtx, s.metricsAddr, s.gatherer)
		})
	}

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		return err
	}
	s.logg.Info(ctx, "worker context canceled")
	return ctx.Err()
}
