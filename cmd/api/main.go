package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orderhub-backend/api"
	"github.com/angelmondragon/orderhub-backend/api/routes"
	"github.com/angelmondragon/orderhub-backend/internal/auth"
	"github.com/angelmondragon/orderhub-backend/internal/basket"
	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/internal/contacts"
	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/orders"
	"github.com/angelmondragon/orderhub-backend/internal/partners"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/auth/session"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/env"
	"github.com/angelmondragon/orderhub-backend/pkg/instance"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
	"github.com/angelmondragon/orderhub-backend/pkg/migrate"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/angelmondragon/orderhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID("api"),
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		redisClient,
		sessionManager,
		services,
		metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		prometheus.DefaultGatherer,
	)

	if err := api.NewServer(addr, handler, logg).Run(ctx); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	notifier, err := notifications.NewNotifier(emitter)
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Notifier:       notifier,
		PasswordConfig: cfg.Password,
		TokenConfig:    cfg.Tokens,
	})
	if err != nil {
		return routes.Services{}, err
	}
	recoveryService, err := auth.NewRecoveryService(auth.RecoveryServiceParams{
		DB:             dbClient,
		Notifier:       notifier,
		PasswordConfig: cfg.Password,
		TokenConfig:    cfg.Tokens,
	})
	if err != nil {
		return routes.Services{}, err
	}
	accountService, err := auth.NewAccountService(dbClient, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}

	contactService, err := contacts.NewService(contacts.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	catalogRepo := catalog.NewRepository(conn)
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	ordersRepo := orders.NewRepository(conn)
	basketService, err := basket.NewService(ordersRepo, dbClient, notifier)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := orders.NewService(ordersRepo, dbClient, notifier)
	if err != nil {
		return routes.Services{}, err
	}
	partnerService, err := partners.NewService(dbClient, catalogRepo, emitter)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:     authService,
		Register: registerService,
		Recovery: recoveryService,
		Account:  accountService,
		Contacts: contactService,
		Catalog:  catalogService,
		Basket:   basketService,
		Orders:   orderService,
		Partners: partnerService,
	}, nil
}
