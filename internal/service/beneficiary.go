package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

type beneficiaryStore interface {
	Create(ctx context.Context, b *domain.Beneficiary) error
	GetActiveForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
	Update(ctx context.Context, b *domain.Beneficiary) error
	Deactivate(ctx context.Context, id, userID uuid.UUID) error
}

type BeneficiaryService struct {
	beneficiaries beneficiaryStore
}

func NewBeneficiaryService(beneficiaries beneficiaryStore) *BeneficiaryService {
	return &BeneficiaryService{beneficiaries: beneficiaries}
}

// BeneficiaryInput carries the editable fields of a beneficiary.
type BeneficiaryInput struct {
	FirstName     string
	LastName      string
	Email         *string
	Phone         *string
	Country       string
	Currency      domain.Currency
	BankName      *string
	AccountNumber string
	RoutingNumber *string
	SwiftCode     *string
	IBAN          *string
	AccountType   domain.AccountType
}

func (in BeneficiaryInput) apply(b *domain.Beneficiary) {
	b.FirstName = in.FirstName
	b.LastName = in.LastName
	b.Email = in.Email
	b.Phone = in.Phone
	b.Country = in.Country
	b.Currency = in.Currency
	b.BankName = in.BankName
	b.AccountNumber = in.AccountNumber
	b.RoutingNumber = in.RoutingNumber
	b.SwiftCode = in.SwiftCode
	b.IBAN = in.IBAN
	b.AccountType = in.AccountType
	if b.AccountType == "" {
		b.AccountType = domain.AccountTypeChecking
	}
}

func (s *BeneficiaryService) Create(ctx context.Context, userID uuid.UUID, in BeneficiaryInput) (*domain.Beneficiary, error) {
	if !in.Currency.IsValid() {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidCurrency)
	}

	now := time.Now().UTC()
	b := &domain.Beneficiary{
		ID:        uuid.New(),
		UserID:    userID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(b)

	if err := s.beneficiaries.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	logging.FromContext(ctx).Info("beneficiary created", "beneficiary_id", b.ID, "country", b.Country)
	return b, nil
}

func (s *BeneficiaryService) List(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	list, err := s.beneficiaries.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return list, nil
}

func (s *BeneficiaryService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Beneficiary, error) {
	b, err := s.beneficiaries.GetActiveForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return b, nil
}

func (s *BeneficiaryService) Update(ctx context.Context, userID, id uuid.UUID, in BeneficiaryInput) (*domain.Beneficiary, error) {
	if !in.Currency.IsValid() {
		return nil, fmt.Errorf("Update: %w", domain.ErrInvalidCurrency)
	}

	b, err := s.beneficiaries.GetActiveForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	in.apply(b)
	b.UpdatedAt = time.Now().UTC()
	if err := s.beneficiaries.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	logging.FromContext(ctx).Info("beneficiary updated", "beneficiary_id", b.ID)
	return b, nil
}

// Deactivate soft-deletes the beneficiary. Existing transfers keep referencing it.
func (s *BeneficiaryService) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.beneficiaries.Deactivate(ctx, id, userID); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	logging.FromContext(ctx).Info("beneficiary deactivated", "beneficiary_id", id)
	return nil
}
