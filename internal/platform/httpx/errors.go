package httpx

import (
	"errors"
	"net/http"

	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// ErrValidation marks a rejected request payload.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var connErr *shared.ConnectionError
	switch {
	case errors.Is(err, shared.ErrSupplierUnknown):
		Problem(w, http.StatusNotFound, "Unknown Supplier", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &connErr):
		Problem(w, http.StatusBadGateway, "Source Unreachable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
