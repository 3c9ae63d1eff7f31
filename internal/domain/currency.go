package domain

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyNGN Currency = "NGN"
)

// HomeCurrency is the currency the fee schedule treats as local.
const HomeCurrency = CurrencyUSD

// IsValid reports whether c looks like an ISO 4217 alpha code.
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}
