package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook"
)

const requestTimeout = 60 * time.Second

// Handlers sets up the dispatch API; metricsHandler may be nil
func Handlers(logger zerolog.Logger, destinations destination.UseCase, dispatcher webhook.UseCase, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/webhooks", getDestinations(destinations))
		r.Method(http.MethodPost, "/webhooks", postDestination(destinations))
		r.Method(http.MethodGet, "/webhooks/{webhook_id}", getDestination(destinations))
		r.Method(http.MethodDelete, "/webhooks/{webhook_id}", deleteDestination(destinations))
		r.Method(http.MethodPut, "/webhooks/{webhook_id}/active", putActive(destinations))

		r.Method(http.MethodPost, "/webhooks/{webhook_id}/trigger", postTrigger(dispatcher))
		r.Method(http.MethodPost, "/webhooks/{webhook_id}/notify", postNotify(dispatcher))

		r.Method(http.MethodGet, "/deliveries/{delivery_id}", getDelivery(dispatcher))
	})

	return r
}
