package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	var apiErr *transport.APIError

	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrInvalidQuantity):
		return http.StatusBadRequest, e.ErrInvalidQuantity.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrInvalidTheme):
		return http.StatusBadRequest, e.ErrInvalidTheme.Error()
	case errors.Is(err, e.ErrOutOfStock):
		return http.StatusConflict, e.ErrOutOfStock.Error()
	case errors.Is(err, e.ErrCartItemMissing):
		return http.StatusNotFound, e.ErrCartItemMissing.Error()
	case errors.Is(err, e.ErrNotAuthenticated):
		return http.StatusUnauthorized, e.ErrNotAuthenticated.Error()
	case errors.Is(err, e.ErrNoClient):
		return http.StatusServiceUnavailable, e.ErrNoClient.Error()
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return apiErr.StatusCode, msg
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, e.ErrUpstream.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Неизвестные поля и лишние данные: ErrStatusBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, e.ErrPricePrecision) || errors.Is(err, e.ErrInvalidPrice) {
			return err
		}
		return e.Wrap(whereami.WhereAmI()+": "+err.Error(), e.ErrStatusBadRequest)
	}
	if dec.More() {
		return e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}

	return nil
}
