package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carrental-backend/internal/config"
	"carrental-backend/internal/domain"
	"carrental-backend/internal/gateway"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/repository"
)

type paymentService struct {
	db          *sql.DB
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	vehicleRepo repository.VehicleRepository
	gw          gateway.Client
	siteURL     string
	currency    string
	provider    string
}

func NewPaymentService(
	db *sql.DB,
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	gw gateway.Client,
	gatewayCfg config.GatewayConfig,
) PaymentService {
	return &paymentService{
		db:          db,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		gw:          gw,
		siteURL:     gatewayCfg.SiteURL,
		currency:    gatewayCfg.Currency,
		provider:    gatewayCfg.Provider,
	}
}

func (s *paymentService) StartCheckout(ctx context.Context, paymentID uuid.UUID) (*gateway.CheckoutSession, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, fmt.Errorf("%w: checkout not allowed from %s", domain.ErrTransitionRejected, payment.Status)
	}
	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicleRepo.GetByID(ctx, booking.VehicleID)
	if err != nil {
		return nil, err
	}

	// The gateway call happens with no transaction or lock held; the only
	// local effect is recording the correlation id the webhook will carry.
	req := gateway.BuildCheckoutRequest(payment, booking, vehicle, s.siteURL)
	session, err := s.gw.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if err := s.paymentRepo.SetProviderTransactionID(ctx, payment.ID, session.ProviderTransactionID); err != nil {
		// A conflict here means another checkout attached its correlation id
		// first. That session stays authoritative; this one is discarded.
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	logger.Info("Checkout session started",
		"payment_id", payment.ID,
		"booking_id", booking.ID,
		"leg", payment.Leg,
		"provider_transaction_id", session.ProviderTransactionID)
	return session, nil
}

func (s *paymentService) RecordExtraCharge(ctx context.Context, bookingID, actorID uuid.UUID, leg domain.PaymentLeg, amount decimal.Decimal) (*domain.Payment, error) {
	if leg != domain.PaymentLegLateFee && leg != domain.PaymentLegDamageCharge {
		return nil, domain.Validationf("leg must be LATE_FEE or DAMAGE_CHARGE")
	}
	if !amount.IsPositive() {
		return nil, domain.Validationf("amount must be positive")
	}

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
	// Extra charges are an agency assessment at or after the vehicle's
	// return; the requester never originates them.
	if actorID != booking.AgencyID {
		return nil, domain.ErrForbidden
	}
	if booking.Status != domain.BookingStatusConfirmed && booking.Status != domain.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: extra charges need a confirmed or completed booking", domain.ErrTransitionRejected)
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:        domain.NewPaymentID(),
		BookingID: booking.ID,
		Leg:       leg,
		Amount:    amount,
		Currency:  s.currency,
		Provider:  s.provider,
		Status:    domain.PaymentStatusPending,
		CreatedOn: now,
		UpdatedOn: now,
	}
	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	logger.Info("Extra charge recorded",
		"booking_id", booking.ID,
		"payment_id", payment.ID,
		"leg", leg,
		"amount", amount)
	return payment, nil
}

func (s *paymentService) ListBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]domain.Payment, error) {
	return s.paymentRepo.ListByBooking(ctx, s.db, bookingID)
}
