// Package webhook exposes the relay over plain HTTP.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"signal_relay/internal/domain"
)

const maxRequestBody = 1 << 20

// Relayer handles one decoded invocation.
type Relayer interface {
	Handle(ctx context.Context, ev *domain.InvocationEvent) domain.Response
}

// WebhookHandler accepts alert webhooks and hands them to the relay.
// The request body is an InvocationEvent document.
type WebhookHandler struct {
	relay Relayer
}

// NewWebhookHandler creates a handler
func NewWebhookHandler(relay Relayer) *WebhookHandler {
	return &WebhookHandler{relay: relay}
}

// HandleWebhook answers with the relay's status code and JSON body.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev domain.InvocationEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&ev); err != nil {
		slog.WarnContext(r.Context(), "Rejected webhook request", slog.Any("error", err))
		writeResponse(w, domain.NewResponse(domain.OutcomeFailed))
		return
	}

	writeResponse(w, h.relay.Handle(r.Context(), &ev))
}

// ServeHTTP lets the handler be mounted directly.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWebhook(w, r)
}

func writeResponse(w http.ResponseWriter, resp domain.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write([]byte(resp.Body)); err != nil {
		slog.Warn("Failed to write webhook response", slog.Any("error", err))
	}
}

// NewMux wires the webhook, health check and optional metrics endpoints.
func NewMux(h *WebhookHandler, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/webhook", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}
