package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

type Beneficiary struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	FirstName     string
	LastName      string
	Email         *string
	Phone         *string
	Country       string
	Currency      Currency
	BankName      *string
	AccountNumber string
	RoutingNumber *string
	SwiftCode     *string
	IBAN          *string
	AccountType   AccountType
	IsActive      bool
	IsVerified    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b *Beneficiary) FullName() string {
	return b.FirstName + " " + b.LastName
}
