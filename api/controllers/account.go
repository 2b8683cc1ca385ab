package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderhub-backend/api/responses"
	"github.com/angelmondragon/orderhub-backend/api/validators"
	"github.com/angelmondragon/orderhub-backend/internal/auth"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

func AccountGet(svc auth.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "account")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		user, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AccountUpdate(svc auth.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "account")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body auth.UpdateAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Update(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
