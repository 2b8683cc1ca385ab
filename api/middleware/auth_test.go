package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderhub-backend/pkg/auth"
	"github.com/angelmondragon/orderhub-backend/pkg/auth/session"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
)

var authTestConfig = config.JWTConfig{Secret: "secret", Issuer: "orderhub", ExpirationMinutes: 60}

func TestAuthRejections(t *testing.T) {
	valid, _ := mintTestToken(t, authTestConfig, time.Now(), enums.UserTypeBuyer)
	expired, _ := mintTestToken(t, authTestConfig, time.Now().Add(-2*time.Hour), enums.UserTypeBuyer)

	cases := []struct {
		name     string
		header   string
		verifier stubSessionVerifier
		status   int
		message  string
	}{
		{"missing", "", stubSessionVerifier{ok: true}, http.StatusUnauthorized, "missing credentials"},
		{"garbage", "Bearer invalid", stubSessionVerifier{ok: true}, http.StatusUnauthorized, "invalid token"},
		{"expired", "Bearer " + expired, stubSessionVerifier{ok: true}, http.StatusUnauthorized, "token expired"},
		{"revoked", "Bearer " + valid, stubSessionVerifier{ok: false}, http.StatusUnauthorized, "session unavailable"},
		{"session store down", valid, stubSessionVerifier{err: errors.New("redis down")}, http.StatusServiceUnavailable, "dependency unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(authTestConfig, tc.verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestAuthSeedsContextFromClaims(t *testing.T) {
	token, userID := mintTestToken(t, authTestConfig, time.Now(), enums.UserTypeShop)

	var user, sessionID string
	var userType enums.UserType
	handler := Auth(authTestConfig, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = UserIDFromContext(r.Context())
		userType = UserTypeFromContext(r.Context())
		sessionID = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// bare tokens are accepted as well as "Bearer <jwt>"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID.String(), user)
	assert.Equal(t, enums.UserTypeShop, userType)
	assert.NotEmpty(t, sessionID)
}

func TestRequireUserType(t *testing.T) {
	handler := RequireUserType(enums.UserTypeShop, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for userType, want := range map[enums.UserType]int{
		enums.UserTypeBuyer: http.StatusForbidden,
		enums.UserTypeShop:  http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserType(req.Context(), userType))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, userType)
	}
}

func TestUserUUIDFromContext(t *testing.T) {
	_, ok := UserUUIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = UserUUIDFromContext(WithUserID(context.Background(), "not-a-uuid"))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := UserUUIDFromContext(WithUserID(context.Background(), id.String()))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, at time.Time, userType enums.UserType) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := auth.MintAccessToken(cfg, at, auth.AccessTokenPayload{
		UserID:   userID,
		UserType: userType,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return token, userID
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}
