package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderhub-backend/api/middleware"
	"github.com/angelmondragon/orderhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/google/uuid"
)

// callerID returns the authenticated user id or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return id, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
