package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/repository"
	"carrental-backend/internal/repository/postgres"
)

// Outcomes stored in the processed-log. REJECTED marks an event whose
// transition was illegal from the payment's current status; the event is
// consumed (idempotency still holds) but no state changed.
const (
	recordApplied   = "APPLIED"
	recordUnmatched = "UNMATCHED"
	recordRejected  = "REJECTED"
)

type reconciler struct {
	db          *sql.DB
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	eventRepo   repository.GatewayEventRepository
}

func NewReconciler(
	db *sql.DB,
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	eventRepo repository.GatewayEventRepository,
) ReconcilerService {
	return &reconciler{
		db:          db,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
	}
}

// ApplyGatewayEvent processes one event inside a single transaction: record
// in the processed-log, match the payment by correlation id, transition the
// payment, and propagate rental-fee outcomes to the owning booking. Either
// the whole set commits or none of it does.
func (r *reconciler) ApplyGatewayEvent(ctx context.Context, ev domain.GatewayEvent) (Outcome, error) {
	if ev.EventID == "" || ev.CorrelationID == "" {
		return "", domain.Validationf("event id and correlation id are required")
	}
	if ev.ReceivedOn.IsZero() {
		ev.ReceivedOn = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	payment, err := r.paymentRepo.GetForUpdateByProviderTxID(ctx, tx, ev.CorrelationID)
	if errors.Is(err, domain.ErrNotFound) {
		// Orphaned event: keep it for manual reconciliation, never drop it
		// silently. Recording it also makes replays report Duplicate.
		if err := r.eventRepo.Record(ctx, tx, &ev, recordUnmatched); err != nil {
			if errors.Is(err, postgres.ErrDuplicateEvent) {
				return OutcomeDuplicate, nil
			}
			return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		logger.Warn("Gateway event matched no payment",
			"event_id", ev.EventID,
			"event_type", ev.Type,
			"correlation_id", ev.CorrelationID)
		return OutcomeUnmatched, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	newStatus, terr := domain.Transition(payment.Status, ev.Type)
	if terr != nil {
		// Out-of-order or replayed-by-the-provider events land here.
		// Logged and ignored: the triggering party is the gateway, not an
		// interactive user, so nothing propagates as an error.
		if err := r.eventRepo.Record(ctx, tx, &ev, recordRejected); err != nil {
			if errors.Is(err, postgres.ErrDuplicateEvent) {
				return OutcomeDuplicate, nil
			}
			return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		logger.Warn("Gateway event transition rejected",
			"event_id", ev.EventID,
			"event_type", ev.Type,
			"payment_id", payment.ID,
			"payment_status", payment.Status,
			"error", terr)
		return OutcomeApplied, nil
	}

	if err := r.eventRepo.Record(ctx, tx, &ev, recordApplied); err != nil {
		if errors.Is(err, postgres.ErrDuplicateEvent) {
			return OutcomeDuplicate, nil
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	now := time.Now().UTC()
	if err := r.paymentRepo.UpdateStatus(ctx, tx, payment.ID, newStatus, ev.Raw, now); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	if payment.Leg == domain.PaymentLegRentalFee {
		if err := r.propagateToBooking(ctx, tx, payment, newStatus, now); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	logger.Info("Gateway event applied",
		"event_id", ev.EventID,
		"event_type", ev.Type,
		"payment_id", payment.ID,
		"from", payment.Status,
		"to", newStatus)
	return OutcomeApplied, nil
}

// propagateToBooking moves the owning booking on terminal rental-fee
// outcomes: CAPTURED confirms it, FAILED cancels it and releases the
// interval. The booking row lock serializes against concurrent manual
// cancellation; finding the booking already CANCELLED is a benign no-op.
func (r *reconciler) propagateToBooking(ctx context.Context, tx *sql.Tx, payment *domain.Payment, status domain.PaymentStatus, now time.Time) error {
	if status != domain.PaymentStatusCaptured && status != domain.PaymentStatusFailed {
		return nil
	}

	booking, err := r.bookingRepo.GetForUpdate(ctx, tx, payment.BookingID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if booking.Status == domain.BookingStatusCancelled {
		// Manual cancellation won the race; nothing left to do.
		logger.Info("Booking already cancelled, payment event is a no-op", "booking_id", booking.ID)
		return nil
	}

	var terr error
	switch status {
	case domain.PaymentStatusCaptured:
		terr = booking.Confirm(now)
	case domain.PaymentStatusFailed:
		terr = booking.Cancel(now)
	}
	if terr != nil {
		logger.Warn("Booking transition skipped on payment event",
			"booking_id", booking.ID,
			"booking_status", booking.Status,
			"payment_status", status)
		return nil
	}
	if err := r.bookingRepo.UpdateStatus(ctx, tx, booking.ID, booking.Status, booking.UpdatedOn); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	logger.Info("Booking status propagated from payment",
		"booking_id", booking.ID,
		"status", booking.Status)
	return nil
}
