package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderhub-backend/internal/partners"
	pkgauth "github.com/angelmondragon/orderhub-backend/pkg/auth"
	"github.com/angelmondragon/orderhub-backend/pkg/auth/session"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type memoryStore struct {
	data map[string]string
	hits map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, hits: map[string]int64{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.hits[scope]++
	return m.hits[scope] <= limit, m.hits[scope], nil
}

type stubPartners struct {
	shops []partners.ShopDTO
}

func (s stubPartners) RequestImport(context.Context, uuid.UUID, enums.CatalogFormat, []byte) (*partners.ImportDTO, error) {
	return &partners.ImportDTO{ID: uuid.New(), Status: enums.CatalogImportPending}, nil
}

func (s stubPartners) GetImport(context.Context, uuid.UUID, uuid.UUID) (*partners.ImportDTO, error) {
	return nil, errors.New("not implemented")
}

func (s stubPartners) ListShops(context.Context, uuid.UUID) ([]partners.ShopDTO, error) {
	return s.shops, nil
}

func (s stubPartners) SetState(context.Context, uuid.UUID, bool) ([]partners.ShopDTO, error) {
	return s.shops, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "orderhub", ExpirationMinutes: 15},
		APIRateLimit: config.APIRateLimitConfig{
			Window: time.Minute,
			Limit:  100,
		},
	}
}

func newTestRouter(t *testing.T, db stubPinger, svc Services) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(
		testConfig(),
		logger.New(logger.Options{ServiceName: "api-test", Output: io.Discard}),
		db,
		stubPinger{},
		newMemoryStore(),
		stubSessions{},
		svc,
		metrics.NewHTTPMetrics(reg),
		reg,
	)
}

func bearer(t *testing.T, userType enums.UserType) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		UserType: userType,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, Services{})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-OrderHub-Env"))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestRouter(t, stubPinger{err: errors.New("down")}, Services{})
	rec = serve(failing, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointServesRequestHistogram(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, Services{})
	serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/health/live")
}

func TestAPIRequiresAuthentication(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, Services{})

	for _, path := range []string{"/api/v1/contacts", "/api/v1/basket", "/api/v1/orders", "/api/v1/partner/state"} {
		rec := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestPartnerRoutesRequireShopUser(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, Services{Partners: stubPartners{shops: []partners.ShopDTO{{ID: uuid.New(), Name: "Shop", State: true}}}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/partner/state", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserTypeBuyer))
	rec := serve(router, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/partner/state", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserTypeShop))
	rec = serve(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Shop"`)
}

func TestPartnerUpdateRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, Services{Partners: stubPartners{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/partner/update", strings.NewReader("shop: {}"))
	req.Header.Set("Authorization", bearer(t, enums.UserTypeShop))
	rec := serve(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/partner/update", strings.NewReader("shop: {}"))
	req.Header.Set("Authorization", bearer(t, enums.UserTypeShop))
	req.Header.Set("Idempotency-Key", "upload-1")
	rec = serve(router, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestMissingServiceReportsInternalError(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserTypeBuyer))
	rec := serve(router, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
