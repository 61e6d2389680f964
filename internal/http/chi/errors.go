package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, webhook.ErrNotFound),
		errors.Is(err, webhook.ErrDeliveryNotFound),
		errors.Is(err, destination.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, webhook.ErrInvalidArgument),
		errors.Is(err, webhook.ErrInvalidChannel),
		errors.Is(err, destination.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, webhook.ErrDestinationInactive),
		errors.Is(err, destination.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, webhook.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
