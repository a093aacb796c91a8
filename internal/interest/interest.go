// Package interest computes simple (non-compounding) interest accrued per month.
package interest

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Calculate returns principal × (ratePercent / 100) × months.
// Inputs are not validated; callers reject negative values.
func Calculate(principal, ratePercent decimal.Decimal, months int) decimal.Decimal {
	return principal.Mul(ratePercent.Div(hundred)).Mul(decimal.NewFromInt(int64(months)))
}

// Total returns the principal plus the interest accrued over months.
func Total(principal, ratePercent decimal.Decimal, months int) decimal.Decimal {
	return principal.Add(Calculate(principal, ratePercent, months))
}
