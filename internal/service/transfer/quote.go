package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/fx"
)

type Quote struct {
	SourceAmount        decimal.Decimal
	SourceCurrency      domain.Currency
	DestinationAmount   decimal.Decimal
	DestinationCurrency domain.Currency
	ExchangeRate        decimal.Decimal
	Fee                 decimal.Decimal
	TotalCost           decimal.Decimal
	RateExpiry          time.Time
}

// Quote prices a prospective transfer without persisting anything.
func (s *Service) Quote(ctx context.Context, amount decimal.Decimal, from, to domain.Currency) (*Quote, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Quote: %w", domain.ErrInvalidAmount)
	}

	rate, err := s.rates.GetRate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Quote: %w", err)
	}

	amount = amount.Round(2)
	fee := fx.CalculateFee(amount, from)
	return &Quote{
		SourceAmount:        amount,
		SourceCurrency:      from,
		DestinationAmount:   fx.Convert(amount, rate.Rate),
		DestinationCurrency: to,
		ExchangeRate:        rate.Rate,
		Fee:                 fee,
		TotalCost:           amount.Add(fee),
		RateExpiry:          rate.Expiry,
	}, nil
}
