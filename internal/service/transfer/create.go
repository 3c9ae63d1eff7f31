package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/fx"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

type CreateRequest struct {
	UserID              uuid.UUID
	BeneficiaryID       uuid.UUID
	SourceAmount        decimal.Decimal
	SourceCurrency      domain.Currency
	DestinationCurrency domain.Currency
	PaymentMethod       domain.PaymentMethod
	Purpose             *string
	Notes               *string
}

func (r CreateRequest) validate() error {
	if !r.SourceAmount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if !r.SourceCurrency.IsValid() || !r.DestinationCurrency.IsValid() {
		return domain.ErrInvalidCurrency
	}
	return nil
}

// CreateTransfer persists a pending transfer priced at the current rate and
// queues it for settlement. It returns as soon as the row is written.
func (s *Service) CreateTransfer(ctx context.Context, req CreateRequest) (*domain.Transfer, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("CreateTransfer: %w", err)
	}

	beneficiary, err := s.beneficiaries.GetActiveForUser(ctx, req.BeneficiaryID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransfer: beneficiary: %w", err)
	}

	quote, err := s.rates.GetRate(ctx, req.SourceCurrency, req.DestinationCurrency)
	if err != nil {
		return nil, fmt.Errorf("CreateTransfer: rate: %w", err)
	}

	amount := req.SourceAmount.Round(2)
	now := s.now().UTC()

	reference, err := s.newReference(now)
	if err != nil {
		return nil, fmt.Errorf("CreateTransfer: %w", err)
	}

	t := &domain.Transfer{
		ID:                  uuid.New(),
		Reference:           reference,
		UserID:              req.UserID,
		BeneficiaryID:       beneficiary.ID,
		SourceAmount:        amount,
		SourceCurrency:      req.SourceCurrency,
		DestinationAmount:   fx.Convert(amount, quote.Rate),
		DestinationCurrency: req.DestinationCurrency,
		ExchangeRate:        quote.Rate,
		Fee:                 fx.CalculateFee(amount, req.SourceCurrency),
		PaymentMethod:       req.PaymentMethod,
		Status:              domain.TransferStatusPending,
		Purpose:             req.Purpose,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.transfers.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateTransfer: %w", err)
	}
	t.Beneficiary = beneficiary

	if err := s.queue.Submit(t.ID); err != nil {
		log.Error("settlement not scheduled, transfer left pending",
			"transfer_id", t.ID,
			"error", err,
		)
	}

	log.Info("transfer created",
		"transfer_id", t.ID,
		"reference", t.Reference,
		"amount", t.SourceAmount.StringFixed(2),
		"currency", t.SourceCurrency,
		"fallback_rate", quote.Fallback,
	)
	return t, nil
}
