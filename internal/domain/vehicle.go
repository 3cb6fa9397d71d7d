package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusRented      VehicleStatus = "RENTED"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusRetired     VehicleStatus = "RETIRED"
)

// Vehicle is the rentable unit. Status is a display/filter hint only;
// real availability is always derived from the bookings table.
type Vehicle struct {
	ID              uuid.UUID       `json:"id"`
	AgencyID        uuid.UUID       `json:"agency_id"`
	Make            string          `json:"make"`
	Model           string          `json:"model"`
	VehicleType     string          `json:"vehicle_type"`
	LicencePlate    string          `json:"licence_plate"`
	DailyRate       decimal.Decimal `json:"daily_rate"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	Status          VehicleStatus   `json:"status"`
	CreatedOn       time.Time       `json:"created_on"`
	UpdatedOn       time.Time       `json:"updated_on"`
}
