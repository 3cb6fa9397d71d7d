package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager("test-secret-key-at-least-32-chars-long")
	actorID := uuid.New()
	agencyID := uuid.New()

	t.Run("Round Trip", func(t *testing.T) {
		token, err := manager.GenerateToken(actorID, agencyID, []string{"requester"}, time.Hour)
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := manager.ValidateToken(token)
		assert.NoError(t, err)
		assert.Equal(t, actorID, claims.ActorID)
		assert.Equal(t, agencyID, claims.AgencyID)
		assert.Equal(t, []string{"requester"}, claims.Roles)
	})

	t.Run("Expired Token", func(t *testing.T) {
		token, err := manager.GenerateToken(actorID, agencyID, nil, -time.Minute)
		assert.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewTokenManager("another-secret-key-also-32-chars-long!!")
		token, err := other.GenerateToken(actorID, agencyID, nil, time.Hour)
		assert.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage Token", func(t *testing.T) {
		_, err := manager.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestWebhookVerifier(t *testing.T) {
	verifier := NewWebhookVerifier("webhook-secret")
	payload := []byte(`{"event_id":"evt_1"}`)

	t.Run("Valid Signature", func(t *testing.T) {
		assert.NoError(t, verifier.Verify(payload, verifier.Sign(payload)))
	})

	t.Run("Tampered Payload", func(t *testing.T) {
		sig := verifier.Sign(payload)
		err := verifier.Verify([]byte(`{"event_id":"evt_2"}`), sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Empty Signature", func(t *testing.T) {
		assert.ErrorIs(t, verifier.Verify(payload, ""), ErrInvalidSignature)
	})
}
