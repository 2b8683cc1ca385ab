package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderhub-backend/api/responses"
	"github.com/angelmondragon/orderhub-backend/api/validators"
	"github.com/angelmondragon/orderhub-backend/internal/basket"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

// BasketGet returns the caller's basket, or null when none exists yet.
func BasketGet(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "basket")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func BasketAdd(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "basket")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body basket.AddItemsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Add(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func BasketUpdate(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "basket")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body basket.UpdateItemsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Update(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func BasketDelete(svc basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "basket")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body basket.DeleteItemsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Delete(r.Context(), userID, validators.ParseIDList(body.Items))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
