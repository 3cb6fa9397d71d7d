package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// Booking binds one vehicle to one half-open interval [StartTS, EndTS) for
// one requester. UnitPrice and TotalCost are locked at creation time; rate
// changes on the vehicle never touch existing bookings.
type Booking struct {
	ID          uuid.UUID       `json:"id"`
	VehicleID   uuid.UUID       `json:"vehicle_id"`
	RequesterID uuid.UUID       `json:"requester_id"`
	AgencyID    uuid.UUID       `json:"agency_id"`
	StartTS     time.Time       `json:"start_ts"`
	EndTS       time.Time       `json:"end_ts"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Currency    string          `json:"currency"`
	Status      BookingStatus   `json:"status"`
	CreatedOn   time.Time       `json:"created_on"`
	UpdatedOn   time.Time       `json:"updated_on"`
}

// Overlaps reports whether the booking's interval intersects [start, end)
// using open-interval comparison on both sides.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTS.Before(end) && b.EndTS.After(start)
}

// BlocksInterval reports whether this booking participates in overlap
// checks. CANCELLED bookings released their interval; COMPLETED bookings
// are history.
func (b *Booking) BlocksInterval() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// Confirm moves a PENDING booking to CONFIRMED. Only a captured rental-fee
// payment may drive this.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != BookingStatusPending {
		return ErrTransitionRejected
	}
	b.Status = BookingStatusConfirmed
	b.UpdatedOn = now.UTC()
	return nil
}

// Cancel moves a PENDING or CONFIRMED booking to CANCELLED, releasing its
// interval. Cancelling an already-CANCELLED booking is a benign no-op;
// COMPLETED bookings are immutable.
func (b *Booking) Cancel(now time.Time) error {
	switch b.Status {
	case BookingStatusCancelled:
		return nil
	case BookingStatusCompleted:
		return ErrAlreadyTerminal
	}
	b.Status = BookingStatusCancelled
	b.UpdatedOn = now.UTC()
	return nil
}

// Complete moves a CONFIRMED booking to COMPLETED (return processing).
func (b *Booking) Complete(now time.Time) error {
	if b.Status != BookingStatusConfirmed {
		return ErrTransitionRejected
	}
	b.Status = BookingStatusCompleted
	b.UpdatedOn = now.UTC()
	return nil
}
