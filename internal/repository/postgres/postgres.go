package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carrental-backend/internal/repository"
)

// ErrDuplicateEvent is reported by the gateway-event processed-log when an
// event id has already been recorded.
var ErrDuplicateEvent = errors.New("gateway event already processed")

type Store struct {
	db *sql.DB
	repository.VehicleRepository
	repository.BookingRepository
	repository.PaymentRepository
	repository.GatewayEventRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		VehicleRepository:      NewVehicleRepository(db),
		BookingRepository:      NewBookingRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		GatewayEventRepository: NewGatewayEventRepository(db),
	}
}

// Postgres error codes the services branch on.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
	codeSerializationFail  = "40001"
)

// IsUniqueViolation reports whether err is a unique-index violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// IsIntervalConflict reports whether err comes from the defense-in-depth
// exclusion constraint on booking intervals. The in-transaction overlap
// check is the admission path; this only backstops it.
func IsIntervalConflict(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeExclusionViolation
}

// IsSerializationFailure reports whether the transaction lost a
// serialization race and is safe to retry.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeSerializationFail
}
