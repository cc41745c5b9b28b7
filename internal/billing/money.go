package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
)

// Cents converts a decimal amount in major units ("750.50") to minor units
// (75050). Amounts with sub-cent precision are rounded half away from zero.
func Cents(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, errors.NewValidationError("amount", amount, "amount is empty")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, errors.NewValidationError("amount", amount, err.Error())
	}
	if d.IsNegative() {
		return 0, errors.NewValidationError("amount", amount, "amount is negative")
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(constants.MaxUnitAmount)) {
		return 0, errors.NewValidationError("amount", amount, "amount exceeds the maximum unit amount")
	}
	return cents.IntPart(), nil
}
