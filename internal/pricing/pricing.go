package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"carrental-backend/internal/domain"
)

const day = 24 * time.Hour

// hundred is the major-to-minor unit factor for two-decimal currencies.
var hundred = decimal.NewFromInt(100)

// ChargeableDays converts a rental duration into whole billed days.
// Duration is rounded up to the next day unless the remainder beyond the
// last full day fits inside the grace window. Minimum charge is one day.
func ChargeableDays(start, end time.Time, grace time.Duration) (int64, error) {
	dur := end.Sub(start)
	if dur <= 0 {
		return 0, domain.Validationf("end must be after start")
	}
	days := int64(dur / day)
	remainder := dur % day
	if days == 0 {
		return 1, nil
	}
	if remainder > grace {
		days++
	}
	return days, nil
}

// ComputeCost returns the locked rental cost for [start, end) at the given
// daily rate. All arithmetic is exact decimal; nothing is rounded here.
func ComputeCost(dailyRate decimal.Decimal, start, end time.Time, grace time.Duration) (decimal.Decimal, error) {
	days, err := ChargeableDays(start, end, grace)
	if err != nil {
		return decimal.Zero, err
	}
	return dailyRate.Mul(decimal.NewFromInt(days)), nil
}

// MinorUnits converts a decimal major-unit amount into integer minor units
// (cents). This is the single rounding point in the system and belongs at
// the gateway boundary only.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
