package transfer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type ListRequest struct {
	Page   int
	Limit  int
	Status *domain.TransferStatus
}

type Pagination struct {
	Total int
	Page  int
	Limit int
	Pages int
}

type Page struct {
	Transfers  []domain.Transfer
	Pagination Pagination
}

func (s *Service) ListTransfers(ctx context.Context, userID uuid.UUID, req ListRequest) (*Page, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = DefaultPageLimit
	}
	req.Limit = min(req.Limit, MaxPageLimit)

	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("ListTransfers: status %q: %w", *req.Status, domain.ErrInvalidRequest)
	}

	transfers, total, err := s.transfers.ListByUser(ctx, userID, domain.TransferFilter{
		Status: req.Status,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("ListTransfers: %w", err)
	}

	return &Page{
		Transfers: transfers,
		Pagination: Pagination{
			Total: total,
			Page:  req.Page,
			Limit: req.Limit,
			Pages: (total + req.Limit - 1) / req.Limit,
		},
	}, nil
}

func (s *Service) GetTransfer(ctx context.Context, userID, id uuid.UUID) (*domain.Transfer, error) {
	t, err := s.transfers.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("GetTransfer: %w", err)
	}
	return t, nil
}

type Receipt struct {
	TransferID        uuid.UUID
	Reference         string
	Status            domain.TransferStatus
	Date              time.Time
	CompletedAt       *time.Time
	SourceAmount      string
	DestinationAmount string
	ExchangeRate      string
	Fee               string
	TotalCost         string
	BeneficiaryName   string
	Country           string
	AccountNumber     string
	ExternalReference *string
	VerificationHash  string
}

func (s *Service) GetReceipt(ctx context.Context, userID, id uuid.UUID) (*Receipt, error) {
	t, err := s.transfers.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: %w", err)
	}
	return buildReceipt(t), nil
}

func buildReceipt(t *domain.Transfer) *Receipt {
	r := &Receipt{
		TransferID:        t.ID,
		Reference:         t.Reference,
		Status:            t.Status,
		Date:              t.CreatedAt,
		CompletedAt:       t.CompletedAt,
		SourceAmount:      t.SourceAmount.StringFixed(2) + " " + string(t.SourceCurrency),
		DestinationAmount: t.DestinationAmount.StringFixed(2) + " " + string(t.DestinationCurrency),
		ExchangeRate:      t.ExchangeRate.String(),
		Fee:               t.Fee.StringFixed(2) + " " + string(t.SourceCurrency),
		TotalCost:         t.TotalCost().StringFixed(2) + " " + string(t.SourceCurrency),
		ExternalReference: t.ExternalReference,
		VerificationHash:  receiptHash(t),
	}
	if b := t.Beneficiary; b != nil {
		r.BeneficiaryName = b.FullName()
		r.Country = b.Country
		r.AccountNumber = MaskAccountNumber(b.AccountNumber)
	}
	return r
}

// MaskAccountNumber keeps only the last four characters visible.
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func receiptHash(t *domain.Transfer) string {
	sum := sha256.Sum256([]byte(
		t.ID.String() + t.SourceAmount.StringFixed(2) + t.DestinationAmount.StringFixed(2) + t.Reference,
	))
	return hex.EncodeToString(sum[:])
}
