package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"carrental-backend/internal/logger"
)

// MockClient is the development stand-in for a real provider. It issues
// fake checkout sessions and logs refund requests; webhook events are then
// simulated by posting signed envelopes to the webhook endpoint.
type MockClient struct {
	baseURL string
}

func NewMockClient(baseURL string) *MockClient {
	return &MockClient{baseURL: baseURL}
}

func (c *MockClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	txID := "mock_pi_" + uuid.NewString()
	logger.Info("Mock checkout session created",
		"payment_id", req.PaymentID,
		"amount_minor", req.AmountMinor,
		"currency", req.Currency,
		"capture_method", req.CaptureMethod,
		"provider_transaction_id", txID)
	return &CheckoutSession{
		URL:                   fmt.Sprintf("%s/mock-checkout/%s", c.baseURL, txID),
		ProviderTransactionID: txID,
	}, nil
}

func (c *MockClient) Refund(ctx context.Context, providerTransactionID string) error {
	logger.Info("Mock refund requested", "provider_transaction_id", providerTransactionID)
	return nil
}
