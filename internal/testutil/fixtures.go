package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		KYCStatus:    domain.KYCStatusVerified,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, password_hash, first_name, last_name, kyc_status, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.KYCStatus, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestBeneficiary(t *testing.T, db *sql.DB, userID uuid.UUID, currency domain.Currency) *domain.Beneficiary {
	t.Helper()

	now := time.Now().UTC()
	b := &domain.Beneficiary{
		ID:            uuid.New(),
		UserID:        userID,
		FirstName:     "Ada",
		LastName:      "Obi",
		Country:       "NG",
		Currency:      currency,
		AccountNumber: "0123456789",
		AccountType:   domain.AccountTypeChecking,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO beneficiaries (id, user_id, first_name, last_name, country, currency, account_number,
			account_type, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.UserID, b.FirstName, b.LastName, b.Country, b.Currency, b.AccountNumber,
		b.AccountType, b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test beneficiary for %s: %v", userID, err)
	}
	return b
}

// SeedTestTransfer inserts a transfer directly in the given status, bypassing
// pricing and settlement.
func SeedTestTransfer(t *testing.T, db *sql.DB, userID, beneficiaryID uuid.UUID, status domain.TransferStatus) *domain.Transfer {
	t.Helper()

	now := time.Now().UTC()
	tr := &domain.Transfer{
		ID:                  uuid.New(),
		Reference:           "TXN" + uuid.NewString()[:8],
		UserID:              userID,
		BeneficiaryID:       beneficiaryID,
		SourceAmount:        decimal.RequireFromString("100.00"),
		SourceCurrency:      domain.CurrencyUSD,
		DestinationAmount:   decimal.RequireFromString("92.00"),
		DestinationCurrency: domain.CurrencyEUR,
		ExchangeRate:        decimal.RequireFromString("0.92"),
		Fee:                 decimal.RequireFromString("2.00"),
		PaymentMethod:       domain.PaymentMethodBankTransfer,
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	_, err := db.Exec(
		`INSERT INTO transfers (id, reference, user_id, beneficiary_id, source_amount, source_currency,
			destination_amount, destination_currency, exchange_rate, fee, payment_method, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		tr.ID, tr.Reference, tr.UserID, tr.BeneficiaryID, tr.SourceAmount, tr.SourceCurrency,
		tr.DestinationAmount, tr.DestinationCurrency, tr.ExchangeRate, tr.Fee, tr.PaymentMethod, tr.Status,
		tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed test transfer: %v", err)
	}
	return tr
}

func TransferStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.TransferStatus {
	t.Helper()

	var status domain.TransferStatus
	if err := db.QueryRow(`SELECT status FROM transfers WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("read transfer status %s: %v", id, err)
	}
	return status
}
