package fx

import (
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

var (
	feeRate = decimal.RequireFromString("0.02")

	homeMinFee  = decimal.RequireFromString("1.00")
	homeMaxFee  = decimal.RequireFromString("50.00")
	otherMinFee = decimal.NewFromInt(100)
	otherMaxFee = decimal.NewFromInt(5000)
)

// CalculateFee charges 2% of amount, clamped to the bounds of the source currency.
func CalculateFee(amount decimal.Decimal, currency domain.Currency) decimal.Decimal {
	minFee, maxFee := otherMinFee, otherMaxFee
	if currency == domain.HomeCurrency {
		minFee, maxFee = homeMinFee, homeMaxFee
	}

	fee := amount.Mul(feeRate)
	if fee.LessThan(minFee) {
		fee = minFee
	}
	if fee.GreaterThan(maxFee) {
		fee = maxFee
	}
	return fee.Round(2)
}

// Convert applies an already-rounded rate and rounds the result to cents.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
