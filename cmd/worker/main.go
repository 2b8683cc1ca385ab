package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/internal/consumers"
	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/instance"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/mailer"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
	"github.com/angelmondragon/orderhub-backend/pkg/migrate"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/registry"
	"github.com/angelmondragon/orderhub-backend/pkg/pubsub"
	"github.com/angelmondragon/orderhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, logg,
		pubsub.Subscription(cfg.PubSub.NotificationSubscription),
		pubsub.Subscription(cfg.PubSub.CatalogSubscription),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	bindings, err := buildBindings(cfg, logg, dbClient, redisClient, pubsubClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build consumers", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		PubSub:      pubsubClient,
		Bindings:    bindings,
		MetricsAddr: cfg.Worker.MetricsAddr,
		Gatherer:    prometheus.DefaultGatherer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID("worker"),
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func buildBindings(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, pubsubClient *pubsub.Client) ([]Binding, error) {
	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return nil, err
	}
	decoders := registry.NewConsumerDecoders()
	consumerMetrics := metrics.NewConsumerMetrics(prometheus.DefaultRegisterer)

	emailHandler, err := notifications.NewEmailConsumer(mailer.New(cfg.Mail, logg), cfg.Mail)
	if err != nil {
		return nil, err
	}
	importer, err := catalog.NewImporter(dbClient, logg)
	if err != nil {
		return nil, err
	}
	importHandler, err := catalog.NewImportConsumer(dbClient, catalog.NewRepository(dbClient.DB()), importer, logg)
	if err != nil {
		return nil, err
	}

	var bindings []Binding
	for _, item := range []struct {
		handler      consumers.Handler
		subscription *gcppubsub.Subscriber
	}{
		{handler: emailHandler, subscription: pubsubClient.Subscriber(cfg.PubSub.NotificationSubscription)},
		{handler: importHandler, subscription: pubsubClient.Subscriber(cfg.PubSub.CatalogSubscription)},
	} {
		consumer, err := consumers.New(consumers.Params{
			Handler:     item.handler,
			Decoders:    decoders,
			Idempotency: guard,
			Metrics:     consumerMetrics,
			Logger:      logg,
		})
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{Consumer: consumer, Subscription: item.subscription})
	}
	return bindings, nil
}
