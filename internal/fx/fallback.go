package fx

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

var fallbackRates = map[string]decimal.Decimal{
	"USD_EUR": decimal.RequireFromString("0.92"),
	"USD_GBP": decimal.RequireFromString("0.79"),
	"USD_INR": decimal.RequireFromString("83.12"),
	"USD_NGN": decimal.RequireFromString("1550.00"),
	"EUR_USD": decimal.RequireFromString("1.09"),
	"GBP_USD": decimal.RequireFromString("1.27"),
}

func pairKey(from, to domain.Currency) string {
	return string(from) + "_" + string(to)
}

// FallbackRate returns the static rate for a pair, or 1 for pairs outside the table.
func FallbackRate(from, to domain.Currency) decimal.Decimal {
	if r, ok := fallbackRates[pairKey(from, to)]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// FallbackRatesFor returns every static rate quoted against base, keyed by
// target currency. The base itself is always present at 1.
func FallbackRatesFor(base domain.Currency) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{string(base): decimal.NewFromInt(1)}
	prefix := string(base) + "_"
	for key, r := range fallbackRates {
		if to, ok := strings.CutPrefix(key, prefix); ok {
			out[to] = r
		}
	}
	return out
}
