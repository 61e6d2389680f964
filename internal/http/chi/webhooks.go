package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/payload"
)

const maxBodyBytes = 1 << 20

// notifyRequest carries a message that is either a JSON string or any JSON value
type notifyRequest struct {
	Message json.RawMessage `json:"message"`
}

type dispatchResponse struct {
	WebhookID string `json:"webhook_id"`
	Delivered bool   `json:"delivered"`
}

type queuedResponse struct {
	WebhookID  string `json:"webhook_id"`
	DeliveryID string `json:"delivery_id"`
}

type deliveryResponse struct {
	ID        string          `json:"id"`
	WebhookID string          `json:"webhook_id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Payload   payload.Payload `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// postTrigger handles POST /v1/webhooks/{webhook_id}/trigger with a raw JSON body
func postTrigger(service webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}
		body, err := payload.Raw(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid payload: %v", err)})
			return
		}
		if body.IsZero() {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is required"})
			return
		}

		dispatch(w, r, service, webhook.Raw, body)
	})
}

// postNotify handles POST /v1/webhooks/{webhook_id}/notify
func postNotify(service webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req notifyRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decoding request: %v", err)})
			return
		}
		if len(req.Message) == 0 || string(req.Message) == "null" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
			return
		}

		var message payload.Payload
		if err := json.Unmarshal(req.Message, &message); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid message: %v", err)})
			return
		}

		dispatch(w, r, service, webhook.Notification, message)
	})
}

// dispatch runs the request synchronously, or queues it when ?async=true
func dispatch(w http.ResponseWriter, r *http.Request, service webhook.UseCase, kind webhook.Kind, body payload.Payload) {
	webhookID := chi.URLParam(r, "webhook_id")

	if r.URL.Query().Get("async") == "true" {
		id, err := service.Enqueue(r.Context(), webhookID, kind, body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, queuedResponse{WebhookID: webhookID, DeliveryID: id})
		return
	}

	var delivered bool
	var err error
	if kind == webhook.Notification {
		delivered, err = service.TriggerNotification(r.Context(), webhookID, body)
	} else {
		delivered, err = service.TriggerWebhook(r.Context(), webhookID, body)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !delivered {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, dispatchResponse{WebhookID: webhookID, Delivered: delivered})
}

func getDelivery(service webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := service.GetDelivery(r.Context(), chi.URLParam(r, "delivery_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deliveryResponse{
			ID:        d.ID,
			WebhookID: d.DestinationID,
			Kind:      d.Kind.String(),
			Status:    d.Status.String(),
			Payload:   d.Payload,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	})
}
