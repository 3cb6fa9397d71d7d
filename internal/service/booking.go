package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carrental-backend/internal/config"
	"carrental-backend/internal/domain"
	"carrental-backend/internal/gateway"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/pricing"
	"carrental-backend/internal/repository"
	"carrental-backend/internal/repository/postgres"
)

type bookingService struct {
	db          *sql.DB
	vehicleRepo repository.VehicleRepository
	bookingRepo repository.BookingRepository
	paymentRepo repository.PaymentRepository
	gw          gateway.Client
	authz       Authorizer
	cfg         config.BookingConfig
	currency    string
	provider    string
}

func NewBookingService(
	db *sql.DB,
	vehicleRepo repository.VehicleRepository,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	gw gateway.Client,
	authz Authorizer,
	cfg config.BookingConfig,
	gatewayCfg config.GatewayConfig,
) BookingService {
	return &bookingService{
		db:          db,
		vehicleRepo: vehicleRepo,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		gw:          gw,
		authz:       authz,
		cfg:         cfg,
		currency:    gatewayCfg.Currency,
		provider:    gatewayCfg.Provider,
	}
}

// validateWindow enforces the synchronous admission rules that need no
// storage access: well-formed interval, no past start, bounded horizon.
func (s *bookingService) validateWindow(start, end, now time.Time) error {
	if !end.After(start) {
		return domain.Validationf("end must be after start")
	}
	if start.Before(now.Add(s.cfg.MinLeadTime())) {
		return domain.Validationf("start is in the past")
	}
	if start.After(now.Add(s.cfg.MaxHorizon())) {
		return domain.Validationf("bookings cannot start more than %d days in advance", s.cfg.MaxHorizonDays)
	}
	return nil
}

func (s *bookingService) CheckAvailability(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error) {
	if err := s.validateWindow(start.UTC(), end.UTC(), time.Now().UTC()); err != nil {
		return false, err
	}
	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return false, err
	}
	// Advisory only. The commit-time gate is the in-transaction re-check
	// under the vehicle row lock in CreateBooking.
	overlaps, err := s.bookingRepo.HasOverlap(ctx, s.db, vehicleID, start.UTC(), end.UTC(), nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return !overlaps, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, vehicleID, requesterID uuid.UUID, start, end time.Time) (*domain.Booking, error) {
	start, end = start.UTC(), end.UTC()
	now := time.Now().UTC()
	if err := s.validateWindow(start, end, now); err != nil {
		return nil, err
	}
	if requesterID == uuid.Nil {
		return nil, domain.Validationf("requester is required")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	// Exclusive lock on the vehicle row closes the check-then-act race:
	// two concurrent admissions for the same vehicle serialize here while
	// bookings for other vehicles proceed untouched. No gateway or other
	// network call happens until after commit.
	vehicle, err := s.vehicleRepo.GetForUpdate(ctx, tx, vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	overlaps, err := s.bookingRepo.HasOverlap(ctx, tx, vehicleID, start, end, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if overlaps {
		return nil, domain.ErrConflict
	}

	totalCost, err := pricing.ComputeCost(vehicle.DailyRate, start, end, s.cfg.GracePeriod())
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:          uuid.New(),
		VehicleID:   vehicle.ID,
		RequesterID: requesterID,
		AgencyID:    vehicle.AgencyID,
		StartTS:     start,
		EndTS:       end,
		UnitPrice:   vehicle.DailyRate,
		TotalCost:   totalCost,
		Currency:    s.currency,
		Status:      domain.BookingStatusPending,
		CreatedOn:   now,
		UpdatedOn:   now,
	}
	if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
		if postgres.IsIntervalConflict(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	legs := []*domain.Payment{{
		ID:        domain.NewPaymentID(),
		BookingID: booking.ID,
		Leg:       domain.PaymentLegRentalFee,
		Amount:    totalCost,
		Currency:  s.currency,
		Provider:  s.provider,
		Status:    domain.PaymentStatusPending,
		CreatedOn: now,
		UpdatedOn: now,
	}}
	if vehicle.SecurityDeposit.IsPositive() {
		legs = append(legs, &domain.Payment{
			ID:        domain.NewPaymentID(),
			BookingID: booking.ID,
			Leg:       domain.PaymentLegSecurityDeposit,
			Amount:    vehicle.SecurityDeposit,
			Currency:  s.currency,
			Provider:  s.provider,
			Status:    domain.PaymentStatusPending,
			CreatedOn: now,
			UpdatedOn: now,
		})
	}
	for _, leg := range legs {
		if err := s.paymentRepo.Create(ctx, tx, leg); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		// An exclusion violation at commit means another booking holds the
		// window: a real conflict. A serialization failure only means this
		// transaction lost the interleaving and can be retried as-is.
		if postgres.IsIntervalConflict(err) {
			return nil, domain.ErrConflict
		}
		if postgres.IsSerializationFailure(err) {
			return nil, fmt.Errorf("%w: transaction serialization failure, retry", domain.ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	logger.Info("Booking created",
		"booking_id", booking.ID,
		"vehicle_id", vehicle.ID,
		"start", start,
		"end", end,
		"total_cost", totalCost,
		"currency", s.currency)
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	booking, compensate, err := s.cancelTx(ctx, bookingID, actorID, false)
	if err != nil {
		return nil, err
	}
	s.compensate(ctx, bookingID, compensate)
	return booking, nil
}

// ExpireBooking is the sweep's cancellation path. Eligibility is re-read
// under the booking row lock: a booking the reconciler confirmed after the
// sweep listed it is left untouched.
func (s *bookingService) ExpireBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, compensate, err := s.cancelTx(ctx, bookingID, uuid.Nil, true)
	if err != nil {
		return nil, err
	}
	s.compensate(ctx, bookingID, compensate)
	return booking, nil
}

// compensate runs the post-commit gateway actions: releasing an
// authorization hold or refunding a captured charge. Failures are logged
// and retried by operators; the cancellation itself stands.
func (s *bookingService) compensate(ctx context.Context, bookingID uuid.UUID, payments []domain.Payment) {
	for _, p := range payments {
		if p.ProviderTransactionID == "" {
			continue
		}
		if err := s.gw.Refund(ctx, p.ProviderTransactionID); err != nil {
			logger.Error("Compensating refund request failed",
				"booking_id", bookingID,
				"payment_id", p.ID,
				"leg", p.Leg,
				"error", err)
		}
	}
}

func (s *bookingService) cancelTx(ctx context.Context, bookingID, actorID uuid.UUID, pendingOnly bool) (*domain.Booking, []domain.Payment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	// Lock the booking row, not the vehicle: cancellation must serialize
	// with a concurrent reconciler update to the same booking, and must
	// never contend with admissions for other windows.
	booking, err := s.bookingRepo.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	// uuid.Nil marks system-initiated cancellation (expiry sweep, payment
	// failure); actor checks are for interactive callers only.
	if actorID != uuid.Nil && !s.authz.CanModifyBooking(actorID, booking) {
		return nil, nil, domain.ErrForbidden
	}

	// Expiry only applies to bookings still waiting on payment. The status
	// is read again under the lock: a confirmation that landed after the
	// sweep listed this booking wins, and the sweep walks away.
	if pendingOnly && booking.Status != domain.BookingStatusPending {
		return booking, nil, nil
	}

	if booking.Status == domain.BookingStatusCancelled {
		// Idempotent: report current state, change nothing.
		return booking, nil, nil
	}
	if err := booking.Cancel(time.Now()); err != nil {
		return nil, nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, booking.Status, booking.UpdatedOn); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	payments, err := s.paymentRepo.ListByBooking(ctx, tx, booking.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	var compensate []domain.Payment
	for _, p := range payments {
		if p.NeedsCompensation() {
			compensate = append(compensate, p)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	logger.Info("Booking cancelled", "booking_id", booking.ID, "actor_id", actorID, "compensations", len(compensate))
	return booking, compensate, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if actorID != uuid.Nil && !s.authz.CanModifyBooking(actorID, booking) {
		return nil, domain.ErrForbidden
	}
	if err := booking.Complete(time.Now()); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, booking.Status, booking.UpdatedOn); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	payments, err := s.paymentRepo.ListByBooking(ctx, tx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	// Release the deposit hold after commit; the REFUNDED transition lands
	// later via the gateway's webhook.
	for _, p := range payments {
		if p.Leg == domain.PaymentLegSecurityDeposit && p.Status == domain.PaymentStatusAuthorized && p.ProviderTransactionID != "" {
			if err := s.gw.Refund(ctx, p.ProviderTransactionID); err != nil {
				logger.Error("Deposit release request failed",
					"booking_id", booking.ID,
					"payment_id", p.ID,
					"error", err)
			}
		}
	}

	logger.Info("Booking completed", "booking_id", booking.ID, "actor_id", actorID)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != uuid.Nil && !s.authz.CanModifyBooking(actorID, booking) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, requesterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookingRepo.ListByRequester(ctx, requesterID, status, page, pageSize)
}

func (s *bookingService) ListAgencyBookings(ctx context.Context, agencyID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookingRepo.ListByAgency(ctx, agencyID, status, page, pageSize)
}

func (s *bookingService) ListVehicles(ctx context.Context, agencyID uuid.UUID, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	return s.vehicleRepo.ListByAgency(ctx, agencyID, page, pageSize)
}
