package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orderhub-backend/api/controllers"
	"github.com/angelmondragon/orderhub-backend/api/middleware"
	"github.com/angelmondragon/orderhub-backend/internal/auth"
	"github.com/angelmondragon/orderhub-backend/internal/basket"
	"github.com/angelmondragon/orderhub-backend/internal/contacts"
	"github.com/angelmondragon/orderhub-backend/internal/orders"
	"github.com/angelmondragon/orderhub-backend/internal/partners"
	"github.com/angelmondragon/orderhub-backend/pkg/auth/session"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/orderhub-backend/pkg/redis"
)

// cacheStore is the slice of the redis client the middleware stack relies on.
type cacheStore interface {
	pkgredis.IdempotencyStore
	middleware.FixedWindowLimiter
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth     auth.Service
	Register auth.RegisterService
	Recovery auth.RecoveryService
	Account  auth.AccountService
	Contacts contacts.Service
	Catalog  controllers.CatalogBrowser
	Basket   basket.Service
	Orders   orders.Service
	Partners partners.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	store cacheStore,
	sessions session.AccessSessionChecker,
	svc Services,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)
	resetPolicy := middleware.PasswordResetRateLimitPolicy(cfg.AuthRateLimit)

	// typed nil stores would slip past the middleware nil checks
	var limiter middleware.FixedWindowLimiter
	var idem pkgredis.IdempotencyStore
	if store != nil {
		limiter = store
		idem = store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idem, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(svc.Register, logg))
		r.Post("/register/confirm", controllers.AuthRegisterConfirm(svc.Register, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(resetPolicy, limiter, logg)).Post("/password-reset", controllers.AuthPasswordReset(svc.Recovery, logg))
		r.Post("/password-reset/confirm", controllers.AuthPasswordResetConfirm(svc.Recovery, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RateLimit(limiter, cfg.APIRateLimit, logg))
		r.Use(middleware.Idempotency(idem, logg))

		r.Get("/account", controllers.AccountGet(svc.Account, logg))
		r.Patch("/account", controllers.AccountUpdate(svc.Account, logg))

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactsList(svc.Contacts, logg))
			r.Post("/", controllers.ContactsCreate(svc.Contacts, logg))
			r.Delete("/", controllers.ContactsDelete(svc.Contacts, logg))
			r.Put("/{contactId}", controllers.ContactsUpdate(svc.Contacts, logg))
		})

		r.Get("/categories", controllers.CatalogCategories(svc.Catalog, logg))
		r.Get("/shops", controllers.CatalogShops(svc.Catalog, logg))
		r.Get("/products", controllers.CatalogProducts(svc.Catalog, logg))

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", controllers.BasketGet(svc.Basket, logg))
			r.Post("/", controllers.BasketAdd(svc.Basket, logg))
			r.Put("/", controllers.BasketUpdate(svc.Basket, logg))
			r.Delete("/", controllers.BasketDelete(svc.Basket, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(svc.Orders, logg))
			r.Post("/", controllers.OrdersPlace(svc.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(svc.Orders, logg))
		})

		r.Route("/partner", func(r chi.Router) {
			r.Use(middleware.RequireUserType(enums.UserTypeShop, logg))
			r.Post("/update", controllers.PartnerUpdate(svc.Partners, cfg.Catalog.MaxUploadBytes(), logg))
			r.Get("/imports/{importId}", controllers.PartnerImportGet(svc.Partners, logg))
			r.Get("/state", controllers.PartnerStateGet(svc.Partners, logg))
			r.Post("/state", controllers.PartnerStateSet(svc.Partners, logg))
			r.Get("/orders", controllers.PartnerOrders(svc.Orders, logg))
		})
	})

	return r
}
