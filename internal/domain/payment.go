package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured          PaymentStatus = "CAPTURED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

type PaymentLeg string

const (
	PaymentLegRentalFee       PaymentLeg = "RENTAL_FEE"
	PaymentLegSecurityDeposit PaymentLeg = "SECURITY_DEPOSIT"
	PaymentLegLateFee         PaymentLeg = "LATE_FEE"
	PaymentLegDamageCharge    PaymentLeg = "DAMAGE_CHARGE"
)

// Payment is one monetary leg of a booking. Amounts stay in decimal major
// units; conversion to gateway minor units happens once, at the gateway
// boundary. Payments are never deleted, only appended or status-mutated.
type Payment struct {
	ID                    uuid.UUID       `json:"id"`
	BookingID             uuid.UUID       `json:"booking_id"`
	Leg                   PaymentLeg      `json:"leg"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Provider              string          `json:"provider"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
	Status                PaymentStatus   `json:"status"`
	GatewayResponseRaw    json.RawMessage `json:"gateway_response_raw,omitempty"`
	CreatedOn             time.Time       `json:"created_on"`
	UpdatedOn             time.Time       `json:"updated_on"`
}

type GatewayEventType string

const (
	EventPaymentAuthorized        GatewayEventType = "payment.authorized"
	EventPaymentCaptured          GatewayEventType = "payment.captured"
	EventPaymentFailed            GatewayEventType = "payment.failed"
	EventPaymentRefunded          GatewayEventType = "payment.refunded"
	EventPaymentPartiallyRefunded GatewayEventType = "payment.partially_refunded"
)

// GatewayEvent is the deduplicated envelope delivered by the payment
// provider. CorrelationID carries the provider transaction id; matching is
// done on it alone, never by amount or timing.
type GatewayEvent struct {
	EventID       string           `json:"event_id"`
	Type          GatewayEventType `json:"event_type"`
	CorrelationID string           `json:"correlation_id"`
	Raw           json.RawMessage  `json:"data,omitempty"`
	ReceivedOn    time.Time        `json:"received_on"`
}

// Transition is the pure payment state machine. It returns the status the
// payment moves to under the given event, or ErrTransitionRejected when the
// event is not legal from the current status. It never coerces: an illegal
// transition leaves the caller's state untouched.
//
//	PENDING    -> AUTHORIZED | FAILED
//	AUTHORIZED -> CAPTURED | FAILED | REFUNDED (hold released)
//	CAPTURED   -> REFUNDED | PARTIALLY_REFUNDED
func Transition(current PaymentStatus, event GatewayEventType) (PaymentStatus, error) {
	switch event {
	case EventPaymentAuthorized:
		if current == PaymentStatusPending {
			return PaymentStatusAuthorized, nil
		}
	case EventPaymentCaptured:
		if current == PaymentStatusAuthorized {
			return PaymentStatusCaptured, nil
		}
	case EventPaymentFailed:
		if current == PaymentStatusPending || current == PaymentStatusAuthorized {
			return PaymentStatusFailed, nil
		}
	case EventPaymentRefunded:
		if current == PaymentStatusCaptured || current == PaymentStatusAuthorized {
			return PaymentStatusRefunded, nil
		}
	case EventPaymentPartiallyRefunded:
		if current == PaymentStatusCaptured {
			return PaymentStatusPartiallyRefunded, nil
		}
	default:
		return current, fmt.Errorf("%w: unknown event %q", ErrTransitionRejected, event)
	}
	return current, fmt.Errorf("%w: %s not allowed from %s", ErrTransitionRejected, event, current)
}

// Terminal reports whether no further gateway event can move the payment.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// NeedsCompensation reports whether cancelling the owning booking requires a
// compensating gateway action for this payment (release of hold or refund).
func (p *Payment) NeedsCompensation() bool {
	return p.Status == PaymentStatusAuthorized || p.Status == PaymentStatusCaptured
}

// NewPaymentID returns an opaque public identifier for a payment leg.
func NewPaymentID() uuid.UUID { return uuid.New() }
