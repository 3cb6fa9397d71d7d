package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/security"
	"carrental-backend/internal/service"
)

type stubReconciler struct {
	outcome service.Outcome
	err     error
	applied []domain.GatewayEvent
}

func (s *stubReconciler) ApplyGatewayEvent(_ context.Context, ev domain.GatewayEvent) (service.Outcome, error) {
	s.applied = append(s.applied, ev)
	return s.outcome, s.err
}

func postWebhook(t *testing.T, h *WebhookHandler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("X-Gateway-Signature", signature)
	rec := httptest.NewRecorder()
	h.HandleGatewayEvent(rec, req)
	return rec
}

func TestWebhookHandler_HandleGatewayEvent(t *testing.T) {
	verifier := security.NewWebhookVerifier("test-webhook-secret")
	payload := []byte(`{"event_id":"evt_1","event_type":"payment.captured","correlation_id":"pi_123","data":{"amount":15000}}`)

	t.Run("Verified Event Is Applied", func(t *testing.T) {
		reconciler := &stubReconciler{outcome: service.OutcomeApplied}
		h := NewWebhookHandler(reconciler, verifier)

		rec := postWebhook(t, h, payload, verifier.Sign(payload))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "evt_1", resp["received"])
		assert.Equal(t, "APPLIED", resp["outcome"])

		if assert.Len(t, reconciler.applied, 1) {
			assert.Equal(t, "evt_1", reconciler.applied[0].EventID)
			assert.Equal(t, domain.EventPaymentCaptured, reconciler.applied[0].Type)
			assert.Equal(t, "pi_123", reconciler.applied[0].CorrelationID)
		}
	})

	t.Run("Bad Signature Is Rejected", func(t *testing.T) {
		reconciler := &stubReconciler{outcome: service.OutcomeApplied}
		h := NewWebhookHandler(reconciler, verifier)

		rec := postWebhook(t, h, payload, "deadbeef")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, reconciler.applied)
	})

	t.Run("Malformed Payload Is Rejected", func(t *testing.T) {
		reconciler := &stubReconciler{outcome: service.OutcomeApplied}
		h := NewWebhookHandler(reconciler, verifier)

		body := []byte(`{not json`)
		rec := postWebhook(t, h, body, verifier.Sign(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, reconciler.applied)
	})

	t.Run("Internal Failure Is Still Acked", func(t *testing.T) {
		reconciler := &stubReconciler{err: errors.New("db down")}
		h := NewWebhookHandler(reconciler, verifier)

		rec := postWebhook(t, h, payload, verifier.Sign(payload))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "evt_1", resp["received"])
		assert.Empty(t, resp["outcome"])
	})

	t.Run("Duplicate Delivery", func(t *testing.T) {
		reconciler := &stubReconciler{outcome: service.OutcomeDuplicate}
		h := NewWebhookHandler(reconciler, verifier)

		rec := postWebhook(t, h, payload, verifier.Sign(payload))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "DUPLICATE", resp["outcome"])
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{domain.Validationf("end must be after start"), "VALIDATION", http.StatusBadRequest},
		{domain.ErrConflict, "CONFLICT", http.StatusConflict},
		{domain.ErrForbidden, "FORBIDDEN", http.StatusForbidden},
		{domain.ErrAlreadyTerminal, "ALREADY_TERMINAL", http.StatusConflict},
		{domain.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{domain.ErrUnavailable, "RETRYABLE", http.StatusServiceUnavailable},
		{errors.New("boom"), "RETRYABLE", http.StatusServiceUnavailable},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, c.err)
		assert.Equal(t, c.status, rec.Code, c.kind)

		var env errorEnvelope
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, c.kind, env.Error.Kind)
	}
}
