package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/orderhub-backend/api/responses"
	"github.com/angelmondragon/orderhub-backend/api/validators"
	"github.com/angelmondragon/orderhub-backend/internal/orders"
	"github.com/angelmondragon/orderhub-backend/internal/partners"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

const (
	uploadField = "file"
	maxHintLen  = 64
)

type stateRequest struct {
	State string `json:"state" validate:"required"`
}

// PartnerUpdate accepts a price list either as multipart field "file" or as
// the raw request body and queues it for import. The format comes from the
// format query parameter, then a specific part or request content type, then
// the file extension, and defaults to YAML.
func PartnerUpdate(svc partners.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "partner")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		raw, format, err := readPriceList(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imp, err := svc.RequestImport(r.Context(), userID, format, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteAccepted(w, imp)
	}
}

func readPriceList(r *http.Request) ([]byte, enums.CatalogFormat, error) {
	var (
		raw                   []byte
		contentType, fileName string
		err                   error
	)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		raw, contentType, fileName, err = readUploadPart(r)
	} else {
		raw, err = io.ReadAll(r.Body)
		contentType = r.Header.Get("Content-Type")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "price list exceeds the upload limit")
		}
		return nil, "", err
	}

	format, err := resolveFormat(r.URL.Query().Get("format"), contentType, fileName)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported price list format")
	}
	return raw, format, nil
}

// genericTypes say nothing about the document inside; curl --data-binary
// sends application/x-www-form-urlencoded, for instance.
var genericTypes = map[string]bool{
	"":                                  true,
	"text/plain":                        true,
	"application/octet-stream":          true,
	"application/x-www-form-urlencoded": true,
}

// resolveFormat tries the format query parameter, a specific content type,
// the file extension and finally falls back to YAML.
func resolveFormat(query, contentType, fileName string) (enums.CatalogFormat, error) {
	if query = validators.SanitizeString(query, maxHintLen); query != "" {
		return enums.ParseCatalogFormat(query)
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !genericTypes[mediaType] {
		return enums.ParseCatalogFormat(mediaType)
	}
	ext := strings.TrimPrefix(filepath.Ext(validators.SanitizeString(fileName, maxHintLen)), ".")
	if format, err := enums.ParseCatalogFormat(ext); err == nil {
		return format, nil
	}
	return enums.CatalogFormatYAML, nil
}

func readUploadPart(r *http.Request) (raw []byte, contentType, fileName string, err error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", "", pkgerrors.New(pkgerrors.CodeValidation, "multipart field \""+uploadField+"\" is required")
		}
		if err != nil {
			return nil, "", "", err
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}
		defer part.Close()
		raw, err := io.ReadAll(part)
		if err != nil {
			return nil, "", "", err
		}
		return raw, part.Header.Get("Content-Type"), part.FileName(), nil
	}
}

func PartnerImportGet(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "partner")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		importID, err := validators.ParseURLUUID(r, "importId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imp, err := svc.GetImport(r.Context(), userID, importID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, imp)
	}
}

func PartnerStateGet(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "partner")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		shops, err := svc.ListShops(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shops)
	}
}

// PartnerStateSet opens or closes every shop of the caller.
func PartnerStateSet(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "partner")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		var body stateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		open, err := validators.ParseBool("state", body.State)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shops, err := svc.SetState(r.Context(), userID, open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shops)
	}
}

// PartnerOrders lists placed orders that include the caller's offers.
func PartnerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForPartner(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
