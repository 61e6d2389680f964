package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook/signature"
)

/* HTTP layer DTOs for destination management
 * Separate from domain entities to avoid leaking internal structure
 */

type destinationRequest struct {
	ID                 string            `json:"id"`
	URL                string            `json:"url"`
	Channel            string            `json:"channel"`
	Headers            map[string]string `json:"headers"`
	Secret             string            `json:"secret"`
	GenerateSecret     bool              `json:"generate_secret"`
	MaxRetries         *int              `json:"max_retries"`
	RetryDelayMS       *int64            `json:"retry_delay_ms"`
	SuccessStatusCodes []int             `json:"success_status_codes"`
}

type destinationResponse struct {
	ID                 string            `json:"id"`
	URL                string            `json:"url"`
	Channel            string            `json:"channel"`
	Headers            map[string]string `json:"headers,omitempty"`
	Signed             bool              `json:"signed"`
	Active             bool              `json:"active"`
	MaxRetries         *int              `json:"max_retries,omitempty"`
	RetryDelayMS       *int64            `json:"retry_delay_ms,omitempty"`
	SuccessStatusCodes []int             `json:"success_status_codes,omitempty"`
	FailureCount       int               `json:"failure_count"`
	LastTriggered      *time.Time        `json:"last_triggered,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// registeredResponse carries the generated secret, shown only once
type registeredResponse struct {
	destinationResponse
	Secret string `json:"secret,omitempty"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func toResponse(d destination.Destination) destinationResponse {
	d = d.Redacted()
	resp := destinationResponse{
		ID:                 d.ID,
		URL:                d.URL,
		Channel:            d.Channel.String(),
		Headers:            d.Headers,
		Signed:             d.Secret != "",
		Active:             d.Active,
		MaxRetries:         d.MaxRetries,
		SuccessStatusCodes: d.SuccessStatusCodes,
		FailureCount:       d.FailureCount,
		LastTriggered:      d.LastTriggered,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if d.RetryDelay != nil {
		ms := d.RetryDelay.Milliseconds()
		resp.RetryDelayMS = &ms
	}
	return resp
}

func getDestinations(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := service.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		result := make([]destinationResponse, 0, len(all))
		for _, d := range all {
			result = append(result, toResponse(d))
		}
		writeJSON(w, http.StatusOK, result)
	})
}

func getDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := service.Get(r.Context(), chi.URLParam(r, "webhook_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(d))
	})
}

func postDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req destinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decoding request: %v", err)})
			return
		}

		d := destination.Destination{
			ID:                 req.ID,
			URL:                req.URL,
			Channel:            destination.NewChannel(req.Channel),
			Headers:            req.Headers,
			Secret:             req.Secret,
			MaxRetries:         req.MaxRetries,
			SuccessStatusCodes: req.SuccessStatusCodes,
		}
		if req.RetryDelayMS != nil {
			delay := time.Duration(*req.RetryDelayMS) * time.Millisecond
			d.RetryDelay = &delay
		}

		var generated string
		if req.GenerateSecret && req.Secret == "" {
			secret, err := signature.GenerateSecret(32)
			if err != nil {
				writeError(w, err)
				return
			}
			d.Secret = secret.String()
			generated = d.Secret
		}

		created, err := service.Register(r.Context(), d)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, registeredResponse{
			destinationResponse: toResponse(created),
			Secret:              generated,
		})
	})
}

func putActive(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req activeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: `body must be {"active": true|false}`})
			return
		}
		if err := service.SetActive(r.Context(), chi.URLParam(r, "webhook_id"), *req.Active); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func deleteDestination(service destination.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := service.Delete(r.Context(), chi.URLParam(r, "webhook_id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
