package middleware

import (
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

const maxRequestIDLength = 128

// RequestID reuses an inbound X-Request-Id when it is short printable ASCII and
// mints a UUID otherwise. The id is echoed on the response, stored under chi's
// RequestIDKey and attached to the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := inboundRequestID(r.Header.Get(chimw.RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(chimw.RequestIDHeader, id)

			ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

func inboundRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxRequestIDLength {
		return ""
	}
	if strings.IndexFunc(raw, func(c rune) bool { return c < '!' || c > '~' }) >= 0 {
		return ""
	}
	return raw
}
