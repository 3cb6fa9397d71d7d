package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrInvalidSignature = errors.New("webhook signature mismatch")

// WebhookVerifier checks the HMAC-SHA256 signature the payment gateway puts
// on each delivery. Verification happens at the HTTP boundary, before any
// event reaches the reconciler; everything after it trusts the envelope.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Sign returns the hex signature for a payload. Used by tests and the mock
// gateway.
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against the raw request body.
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrInvalidSignature
	}
	return nil
}
