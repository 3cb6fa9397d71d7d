package gateway

import (
	"context"
	"fmt"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/pricing"
)

// CheckoutRequest is the wire-level request handed to the payment provider.
// AmountMinor is the only place in the system where a decimal amount is
// rounded to integer minor units.
type CheckoutRequest struct {
	PaymentID     string
	Description   string
	AmountMinor   int64
	Currency      string
	CaptureMethod string // "automatic" or "manual"
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider's answer: where to send the customer and
// the correlation id later webhook events will carry.
type CheckoutSession struct {
	URL                   string
	ProviderTransactionID string
}

// Client is the outbound payment-gateway boundary. Implementations must not
// be called while a database transaction is open.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// Refund releases an uncaptured hold or refunds a captured charge; the
	// resulting state change arrives asynchronously as a webhook event.
	Refund(ctx context.Context, providerTransactionID string) error
}

// BuildCheckoutRequest assembles the provider request for one payment leg.
// Security deposits use manual capture so the hold can sit until release or
// damage capture; rental fees capture automatically on checkout.
func BuildCheckoutRequest(p *domain.Payment, b *domain.Booking, v *domain.Vehicle, siteURL string) CheckoutRequest {
	captureMethod := "automatic"
	if p.Leg == domain.PaymentLegSecurityDeposit {
		captureMethod = "manual"
	}
	return CheckoutRequest{
		PaymentID:     p.ID.String(),
		Description:   fmt.Sprintf("%s - %s %s (%s)", p.Leg, v.Make, v.Model, v.LicencePlate),
		AmountMinor:   pricing.MinorUnits(p.Amount),
		Currency:      p.Currency,
		CaptureMethod: captureMethod,
		SuccessURL:    fmt.Sprintf("%s/bookings/%s/success", siteURL, b.ID),
		CancelURL:     fmt.Sprintf("%s/bookings/%s/cancel", siteURL, b.ID),
	}
}
