package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/security"
	"carrental-backend/internal/service"
)

// WebhookHandler is the gateway callback ingress. Only a bad signature is
// rejected; every verified delivery is acknowledged fast with 200 so the
// provider never enters a redelivery storm over our internal outcomes.
type WebhookHandler struct {
	reconciler service.ReconcilerService
	verifier   *security.WebhookVerifier
}

func NewWebhookHandler(reconciler service.ReconcilerService, verifier *security.WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, verifier: verifier}
}

type webhookEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

func (h *WebhookHandler) HandleGatewayEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get("X-Gateway-Signature")); err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Warn("Malformed webhook payload", "error", err)
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	outcome, err := h.reconciler.ApplyGatewayEvent(r.Context(), domain.GatewayEvent{
		EventID:       env.EventID,
		Type:          domain.GatewayEventType(env.EventType),
		CorrelationID: env.CorrelationID,
		Raw:           env.Data,
		ReceivedOn:    time.Now().UTC(),
	})
	if err != nil {
		// Ack anyway; the event is retried internally (or surfaced via the
		// unmatched log), not by forcing gateway redelivery.
		logger.Error("Gateway event processing failed",
			"event_id", env.EventID,
			"event_type", env.EventType,
			"error", err)
		writeJSON(w, http.StatusOK, map[string]string{"received": env.EventID})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": env.EventID, "outcome": string(outcome)})
}
