// Package settlement computes the financial close-out of a rental. All
// functions are pure; persistence and state changes stay with the caller.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/pkg/enums"
)

// Charge is one ad-hoc line item added at inspection time.
type Charge struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is the full charge breakdown for a settled rental.
type Quote struct {
	DurationDays     int             `json:"duration_days"`
	BaseCharge       decimal.Decimal `json:"base_charge"`
	AdditionalCharge decimal.Decimal `json:"additional_charge"`
	TotalCharges     decimal.Decimal `json:"total_charges"`
}

// Calculate derives the rental charges for the window [start, end].
// Duration is rounded up to whole days and never below one, so a
// same-moment start and end still bills a single day.
func Calculate(start, end time.Time, dailyRate decimal.Decimal, charges []Charge) Quote {
	days := durationDays(start, end)

	base := dailyRate.Mul(decimal.NewFromInt(int64(days)))
	additional := decimal.Zero
	for _, charge := range charges {
		additional = additional.Add(charge.Amount)
	}

	return Quote{
		DurationDays:     days,
		BaseCharge:       base,
		AdditionalCharge: additional,
		TotalCharges:     base.Add(additional),
	}
}

// DepositDisposition resolves the deposit status once additional charges are
// known. A zero deposit always comes back released since nothing was held.
func DepositDisposition(additional, deposit decimal.Decimal) enums.DepositStatus {
	if additional.LessThanOrEqual(decimal.Zero) {
		return enums.DepositStatusReleased
	}
	if deposit.LessThanOrEqual(decimal.Zero) || additional.GreaterThanOrEqual(deposit) {
		return enums.DepositStatusForfeited
	}
	return enums.DepositStatusPartiallyReleased
}

// DepositSplit returns how much of the deposit is kept against additional
// charges and how much is owed back to the renter.
func DepositSplit(additional, deposit decimal.Decimal) (kept, owed decimal.Decimal) {
	if deposit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero
	}
	if additional.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, deposit
	}
	if additional.GreaterThanOrEqual(deposit) {
		return deposit, decimal.Zero
	}
	return additional, deposit.Sub(additional)
}

func durationDays(start, end time.Time) int {
	if !end.After(start) {
		return 1
	}
	elapsed := end.Sub(start)
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
