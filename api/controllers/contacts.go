package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderhub-backend/api/responses"
	"github.com/angelmondragon/orderhub-backend/api/validators"
	"github.com/angelmondragon/orderhub-backend/internal/contacts"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

// idListRequest carries a comma separated id list, as used by the bulk delete endpoints.
type idListRequest struct {
	Items string `json:"items"`
}

type deleteResponse struct {
	Deleted *int64 `json:"deleted,omitempty"`
}

func ContactsList(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "contacts")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ContactsCreate(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "contacts")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body contacts.CreateContactRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contact, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, contact)
	}
}

func ContactsUpdate(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "contacts")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		contactID, err := validators.ParseURLUUID(r, "contactId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body contacts.UpdateContactRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contact, err := svc.Update(r.Context(), userID, contactID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contact)
	}
}

// ContactsDelete removes the caller's contacts named in items. Unknown or
// malformed ids are ignored.
func ContactsDelete(svc contacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "contacts")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body idListRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleted, err := svc.Delete(r.Context(), userID, validators.ParseIDList(body.Items))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleteResponse{Deleted: deleted})
	}
}
