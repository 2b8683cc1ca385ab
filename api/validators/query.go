package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
)

// optional parses query parameter key with parse, returning nil when absent.
func optional[T any](r *http.Request, key, want string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, invalidParam("query", key, want)
	}
	return &v, nil
}

func invalidParam(where, key, want string) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "%s parameter must be %s", where, want).
		WithDetails(map[string]any{"field": key})
}

// ParseQueryInt returns def when key is absent and rejects values outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	v, err := optional(r, key, "numeric", strconv.Atoi)
	switch {
	case err != nil:
		return 0, err
	case v == nil:
		return def, nil
	case *v < lo || *v > hi:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return *v, nil
}

// ParseQueryUUID returns nil when the parameter is absent.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	return optional(r, key, "a valid id", uuid.Parse)
}

// ParseQueryInt64 returns nil when the parameter is absent.
func ParseQueryInt64(r *http.Request, key string) (*int64, error) {
	return optional(r, key, "numeric", func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// ParseURLUUID reads a chi route parameter as an id.
func ParseURLUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, param)))
	if err != nil {
		return uuid.Nil, invalidParam("path", param, "a valid id")
	}
	return id, nil
}

// ParseIDList splits a comma separated list, skipping blanks, malformed ids
// and repeats.
func ParseIDList(raw string) []uuid.UUID {
	var ids []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
