package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"carrental-backend/internal/domain"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Read paths that must work both outside a transaction (advisory checks)
// and inside one (the authoritative in-lock re-check) take a Querier.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type VehicleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
	// GetForUpdate loads the vehicle row under an exclusive row lock. Must
	// be called inside the transaction that performs the admission check.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Vehicle, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID, page, pageSize int32) ([]domain.Vehicle, int32, error)
}

type BookingRepository interface {
	// HasOverlap is the open-interval overlap predicate over bookings with
	// status PENDING or CONFIRMED. Only authoritative when q is the
	// transaction holding the vehicle lock; on a bare *sql.DB it is an
	// advisory pre-check. exclude, when non-nil, skips the booking being
	// revalidated.
	HasOverlap(ctx context.Context, q Querier, vehicleID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)
	Create(ctx context.Context, tx *sql.Tx, b *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// GetForUpdate locks the booking row; serializes cancellation against a
	// concurrent reconciler update to the same booking.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, q Querier, id uuid.UUID, status domain.BookingStatus, updatedOn time.Time) error
	ListByRequester(ctx context.Context, requesterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	// ListExpiredPending returns ids of PENDING bookings created at or
	// before the cutoff, for the expiry sweep.
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]uuid.UUID, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListByBooking(ctx context.Context, q Querier, bookingID uuid.UUID) ([]domain.Payment, error)
	// GetForUpdateByProviderTxID matches a gateway event to its payment leg
	// by correlation id, locking the row for the duration of the apply.
	GetForUpdateByProviderTxID(ctx context.Context, tx *sql.Tx, providerTxID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, q Querier, id uuid.UUID, status domain.PaymentStatus, raw []byte, updatedOn time.Time) error
	SetProviderTransactionID(ctx context.Context, id uuid.UUID, providerTxID string) error
}

// GatewayEventRepository is the reconciler's processed-log. Record relies
// on the unique event_id index for idempotency: inserting an already-seen
// event reports ErrDuplicateEvent.
type GatewayEventRepository interface {
	Record(ctx context.Context, tx *sql.Tx, ev *domain.GatewayEvent, outcome string) error
	ListUnmatched(ctx context.Context, limit int32) ([]domain.GatewayEvent, error)
}
