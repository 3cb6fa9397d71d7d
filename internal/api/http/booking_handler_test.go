package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/gateway"
	"carrental-backend/internal/security"
	"carrental-backend/internal/service"
)

type stubBookingService struct {
	booking   *domain.Booking
	available bool
	err       error

	gotVehicleID     uuid.UUID
	gotActorID       uuid.UUID
	gotStart, gotEnd time.Time
}

func (s *stubBookingService) CreateBooking(_ context.Context, vehicleID, requesterID uuid.UUID, start, end time.Time) (*domain.Booking, error) {
	s.gotVehicleID, s.gotActorID, s.gotStart, s.gotEnd = vehicleID, requesterID, start, end
	return s.booking, s.err
}
func (s *stubBookingService) CancelBooking(_ context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	s.gotActorID = actorID
	return s.booking, s.err
}
func (s *stubBookingService) ExpireBooking(_ context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.booking, s.err
}
func (s *stubBookingService) CompleteBooking(_ context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	s.gotActorID = actorID
	return s.booking, s.err
}
func (s *stubBookingService) CheckAvailability(_ context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error) {
	s.gotVehicleID, s.gotStart, s.gotEnd = vehicleID, start, end
	return s.available, s.err
}
func (s *stubBookingService) GetBooking(_ context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	s.gotActorID = actorID
	return s.booking, s.err
}
func (s *stubBookingService) ListBookings(_ context.Context, requesterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	if s.booking == nil {
		return nil, 0, s.err
	}
	return []domain.Booking{*s.booking}, 1, s.err
}
func (s *stubBookingService) ListAgencyBookings(_ context.Context, agencyID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return nil, 0, s.err
}
func (s *stubBookingService) ListVehicles(_ context.Context, agencyID uuid.UUID, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	return nil, 0, s.err
}

type stubPaymentService struct{}

func (stubPaymentService) StartCheckout(context.Context, uuid.UUID) (*gateway.CheckoutSession, error) {
	return &gateway.CheckoutSession{URL: "https://pay.example.com/s/1"}, nil
}
func (stubPaymentService) RecordExtraCharge(_ context.Context, bookingID, _ uuid.UUID, leg domain.PaymentLeg, amount decimal.Decimal) (*domain.Payment, error) {
	return &domain.Payment{
		ID:        uuid.New(),
		BookingID: bookingID,
		Leg:       leg,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
	}, nil
}
func (stubPaymentService) ListBookingPayments(context.Context, uuid.UUID) ([]domain.Payment, error) {
	return nil, nil
}

func testRouter(t *testing.T, bookings service.BookingService) (http.Handler, string, uuid.UUID) {
	t.Helper()
	tokens := security.NewTokenManager("test-secret-key-at-least-32-chars-long")
	actorID := uuid.New()
	token, err := tokens.GenerateToken(actorID, uuid.New(), []string{"requester"}, time.Hour)
	require.NoError(t, err)

	verifier := security.NewWebhookVerifier("whsec")
	router := NewRouter(NewBookingHandler(bookings, stubPaymentService{}), NewWebhookHandler(&stubReconciler{}, verifier), tokens)
	return router, token, actorID
}

func TestBookingRoutes(t *testing.T) {
	booking := &domain.Booking{
		ID:          uuid.New(),
		VehicleID:   uuid.New(),
		RequesterID: uuid.New(),
		StartTS:     time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
		EndTS:       time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		TotalCost:   decimal.NewFromInt(200),
		Currency:    "USD",
		Status:      domain.BookingStatusPending,
	}

	t.Run("Create Booking", func(t *testing.T) {
		svc := &stubBookingService{booking: booking}
		router, token, actorID := testRouter(t, svc)

		body, _ := json.Marshal(map[string]string{
			"vehicle_id": booking.VehicleID.String(),
			"start":      "2026-09-10T10:00:00Z",
			"end":        "2026-09-14T10:00:00Z",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, actorID, svc.gotActorID)

		var resp bookingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, booking.ID.String(), resp.BookingID)
		assert.Equal(t, "200.00", resp.TotalCost)
		assert.Equal(t, "PENDING", resp.Status)
	})

	t.Run("Create Booking Conflict Maps To 409", func(t *testing.T) {
		svc := &stubBookingService{err: domain.ErrConflict}
		router, token, _ := testRouter(t, svc)

		body, _ := json.Marshal(map[string]string{
			"vehicle_id": booking.VehicleID.String(),
			"start":      "2026-09-10T10:00:00Z",
			"end":        "2026-09-14T10:00:00Z",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var env errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "CONFLICT", env.Error.Kind)
	})

	t.Run("Missing Token Is Unauthorized", func(t *testing.T) {
		router, _, _ := testRouter(t, &stubBookingService{booking: booking})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Availability Query", func(t *testing.T) {
		svc := &stubBookingService{available: true}
		router, token, _ := testRouter(t, svc)

		url := "/api/v1/vehicles/" + booking.VehicleID.String() + "/availability?start=2026-09-10T10:00:00Z&end=2026-09-14T10:00:00Z"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp["available"])
	})

	t.Run("Record Extra Charge", func(t *testing.T) {
		svc := &stubBookingService{booking: booking}
		router, token, _ := testRouter(t, svc)

		body, _ := json.Marshal(map[string]string{
			"leg":    "DAMAGE_CHARGE",
			"amount": "120.50",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+booking.ID.String()+"/charges", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "DAMAGE_CHARGE", resp["leg"])
		assert.Equal(t, "120.50", resp["amount"])
		assert.Equal(t, "PENDING", resp["status"])
	})

	t.Run("Extra Charge Amount Must Be Decimal", func(t *testing.T) {
		svc := &stubBookingService{booking: booking}
		router, token, _ := testRouter(t, svc)

		body, _ := json.Marshal(map[string]string{"leg": "LATE_FEE", "amount": "a lot"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+booking.ID.String()+"/charges", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Malformed Start Time", func(t *testing.T) {
		svc := &stubBookingService{booking: booking}
		router, token, _ := testRouter(t, svc)

		body, _ := json.Marshal(map[string]string{
			"vehicle_id": booking.VehicleID.String(),
			"start":      "next tuesday",
			"end":        "2026-09-14T10:00:00Z",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var env errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "VALIDATION", env.Error.Kind)
	})
}
