package service_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/gateway"
	"carrental-backend/internal/repository"
)

// MockVehicleRepo
type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Vehicle, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleRepo) ListByAgency(ctx context.Context, agencyID uuid.UUID, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	args := m.Called(ctx, agencyID, page, pageSize)
	return args.Get(0).([]domain.Vehicle), args.Get(1).(int32), args.Error(2)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) HasOverlap(ctx context.Context, q repository.Querier, vehicleID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, vehicleID, start, end, exclude)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) Create(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) UpdateStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status domain.BookingStatus, updatedOn time.Time) error {
	args := m.Called(ctx, q, id, status, updatedOn)
	return args.Error(0)
}
func (m *MockBookingRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, requesterID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListByAgency(ctx context.Context, agencyID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, agencyID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]uuid.UUID, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) ListByBooking(ctx context.Context, q repository.Querier, bookingID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, q, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) GetForUpdateByProviderTxID(ctx context.Context, tx *sql.Tx, providerTxID string) (*domain.Payment, error) {
	args := m.Called(ctx, tx, providerTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status domain.PaymentStatus, raw []byte, updatedOn time.Time) error {
	args := m.Called(ctx, q, id, status, raw, updatedOn)
	return args.Error(0)
}
func (m *MockPaymentRepo) SetProviderTransactionID(ctx context.Context, id uuid.UUID, providerTxID string) error {
	args := m.Called(ctx, id, providerTxID)
	return args.Error(0)
}

// MockGatewayEventRepo
type MockGatewayEventRepo struct {
	mock.Mock
}

func (m *MockGatewayEventRepo) Record(ctx context.Context, tx *sql.Tx, ev *domain.GatewayEvent, outcome string) error {
	args := m.Called(ctx, tx, ev, outcome)
	return args.Error(0)
}
func (m *MockGatewayEventRepo) ListUnmatched(ctx context.Context, limit int32) ([]domain.GatewayEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.GatewayEvent), args.Error(1)
}

// MockGatewayClient
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}
func (m *MockGatewayClient) Refund(ctx context.Context, providerTransactionID string) error {
	args := m.Called(ctx, providerTransactionID)
	return args.Error(0)
}
