package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"carrental-backend/internal/security"
)

// NewRouter wires the public surface: authenticated booking operations and
// the unauthenticated (signature-verified) gateway webhook.
func NewRouter(bookings *BookingHandler, webhooks *WebhookHandler, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/webhooks/payment", webhooks.HandleGatewayEvent).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tokens))
	api.HandleFunc("/bookings", bookings.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings", bookings.ListBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", bookings.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/cancel", bookings.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/complete", bookings.CompleteBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payments", bookings.ListBookingPayments).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/charges", bookings.RecordExtraCharge).Methods(http.MethodPost)
	api.HandleFunc("/payments/{paymentID}/checkout", bookings.StartCheckout).Methods(http.MethodPost)
	api.HandleFunc("/vehicles", bookings.ListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/availability", bookings.CheckAvailability).Methods(http.MethodGet)

	return r
}
