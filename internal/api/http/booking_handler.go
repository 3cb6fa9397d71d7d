package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/service"
)

// BookingHandler exposes the reservation operations consumed by the routing
// layer. Request parsing lives here; all admission logic is in the service.
type BookingHandler struct {
	bookings service.BookingService
	payments service.PaymentService
}

func NewBookingHandler(bookings service.BookingService, payments service.PaymentService) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments}
}

type createBookingRequest struct {
	VehicleID string `json:"vehicle_id"`
	Start     string `json:"start"` // UTC ISO-8601
	End       string `json:"end"`
}

type bookingResponse struct {
	BookingID string `json:"booking_id"`
	VehicleID string `json:"vehicle_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	TotalCost string `json:"total_cost"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID: b.ID.String(),
		VehicleID: b.VehicleID.String(),
		Start:     b.StartTS.UTC().Format(time.RFC3339),
		End:       b.EndTS.UTC().Format(time.RFC3339),
		TotalCost: b.TotalCost.StringFixed(2),
		Currency:  b.Currency,
		Status:    string(b.Status),
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request body"))
		return
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		writeError(w, domain.Validationf("invalid vehicle id"))
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, domain.Validationf("start must be UTC ISO-8601"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, domain.Validationf("end must be UTC ISO-8601"))
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), vehicleID, actorID(r.Context()), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.Validationf("invalid booking id"))
		return
	}
	booking, err := h.bookings.CancelBooking(r.Context(), bookingID, actorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.Validationf("invalid booking id"))
		return
	}
	booking, err := h.bookings.CompleteBooking(r.Context(), bookingID, actorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.Validationf("invalid booking id"))
		return
	}
	booking, err := h.bookings.GetBooking(r.Context(), bookingID, actorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	status := r.URL.Query().Get("status")
	bookings, total, err := h.bookings.ListBookings(r.Context(), actorID(r.Context()), status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, toBookingResponse(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": items, "total": total})
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.Validationf("invalid vehicle id"))
		return
	}
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, domain.Validationf("start must be UTC ISO-8601"))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, domain.Validationf("end must be UTC ISO-8601"))
		return
	}
	available, err := h.bookings.CheckAvailability(r.Context(), vehicleID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	// Advisory answer for search and listing; a later CreateBooking may
	// still return CONFLICT.
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *BookingHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	agency := agencyID(r.Context())
	if agency == uuid.Nil {
		writeError(w, domain.ErrForbidden)
		return
	}
	page, pageSize := pagination(r)
	vehicles, total, err := h.bookings.ListVehicles(r.Context(), agency, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vehicles, "total": total})
}

func (h *BookingHandler) ListBookingPayments(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.Validationf("invalid booking id"))
		return
	}
	if _, err := h.bookings.GetBooking(r.Context(), bookingID, actorID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	payments, err := h.payments.ListBookingPayments(r.Context(), bookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

type extraChargeRequest struct {
	Leg    string `json:"leg"` // LATE_FEE or DAMAGE_CHARGE
	Amount string `json:"amount"`
}

func (h *BookingHandler) RecordExtraCharge(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.Validationf("invalid booking id"))
		return
	}
	var req extraChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request body"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, domain.Validationf("amount must be a decimal string"))
		return
	}
	payment, err := h.payments.RecordExtraCharge(r.Context(), bookingID, actorID(r.Context()), domain.PaymentLeg(req.Leg), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"payment_id": payment.ID.String(),
		"booking_id": payment.BookingID.String(),
		"leg":        string(payment.Leg),
		"amount":     payment.Amount.StringFixed(2),
		"status":     string(payment.Status),
	})
}

func (h *BookingHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentID"])
	if err != nil {
		writeError(w, domain.Validationf("invalid payment id"))
		return
	}
	session, err := h.payments.StartCheckout(r.Context(), paymentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": session.URL})
}

func pagination(r *http.Request) (int32, int32) {
	page, pageSize := int32(1), int32(20)
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
