package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/gateway"
)

type BookingService interface {
	// CreateBooking admits the interval atomically under the vehicle row
	// lock and creates the booking (PENDING) together with its payment
	// legs. Returns domain.ErrConflict when the window is taken.
	CreateBooking(ctx context.Context, vehicleID, requesterID uuid.UUID, start, end time.Time) (*domain.Booking, error)
	// CancelBooking flips PENDING/CONFIRMED to CANCELLED; it is an
	// idempotent no-op on an already-CANCELLED booking and rejects
	// COMPLETED ones. Compensating gateway actions run after commit.
	CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error)
	// ExpireBooking cancels a stale booking on behalf of the expiry sweep.
	// The PENDING check is repeated under the row lock, so a booking
	// confirmed after listing is left as-is.
	ExpireBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	// CompleteBooking records the vehicle's return and releases the
	// security deposit hold.
	CompleteBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error)
	// CheckAvailability is the advisory pre-check; it never gates a commit.
	CheckAvailability(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error)
	GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error)
	ListBookings(ctx context.Context, requesterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListAgencyBookings(ctx context.Context, agencyID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListVehicles(ctx context.Context, agencyID uuid.UUID, page, pageSize int32) ([]domain.Vehicle, int32, error)
}

type PaymentService interface {
	// StartCheckout builds the gateway checkout for a payment leg and
	// stores the returned correlation id. Runs no database transaction
	// across the gateway call.
	StartCheckout(ctx context.Context, paymentID uuid.UUID) (*gateway.CheckoutSession, error)
	// RecordExtraCharge appends a LATE_FEE or DAMAGE_CHARGE leg to a
	// confirmed or completed booking. Agency only; checkout and capture
	// then follow the same path as any other leg.
	RecordExtraCharge(ctx context.Context, bookingID, actorID uuid.UUID, leg domain.PaymentLeg, amount decimal.Decimal) (*domain.Payment, error)
	ListBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]domain.Payment, error)
}

// Outcome classifies what the reconciler did with a gateway event.
type Outcome string

const (
	OutcomeApplied   Outcome = "APPLIED"
	OutcomeDuplicate Outcome = "DUPLICATE"
	OutcomeUnmatched Outcome = "UNMATCHED"
)

type ReconcilerService interface {
	// ApplyGatewayEvent applies one deduplicated gateway event to the
	// payment ledger and, for rental-fee outcomes, to the owning booking.
	// Idempotent per event id; illegal transitions are logged and ignored.
	ApplyGatewayEvent(ctx context.Context, ev domain.GatewayEvent) (Outcome, error)
}

// Authorizer is the seam to the external authorization collaborator. The
// default implementation only knows the requester-owns-booking rule; richer
// role checks live upstream.
type Authorizer interface {
	CanModifyBooking(actorID uuid.UUID, b *domain.Booking) bool
}

type requesterAuthorizer struct{}

func NewRequesterAuthorizer() Authorizer { return requesterAuthorizer{} }

func (requesterAuthorizer) CanModifyBooking(actorID uuid.UUID, b *domain.Booking) bool {
	return actorID == b.RequesterID || actorID == b.AgencyID
}
