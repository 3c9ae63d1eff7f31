package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferStatusPending    TransferStatus = "pending"
	TransferStatusProcessing TransferStatus = "processing"
	TransferStatusCompleted  TransferStatus = "completed"
	TransferStatusFailed     TransferStatus = "failed"
	TransferStatusCancelled  TransferStatus = "cancelled"
)

func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusProcessing, TransferStatusCompleted,
		TransferStatusFailed, TransferStatusCancelled:
		return true
	}
	return false
}

func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed || s == TransferStatusCancelled
}

var transitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending:    {TransferStatusProcessing, TransferStatusCancelled},
	TransferStatusProcessing: {TransferStatusCompleted, TransferStatusFailed, TransferStatusCancelled},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to TransferStatus) bool {
	return slices.Contains(transitions[from], to)
}

// SourcesFor lists every status from which a transition into to is legal.
func SourcesFor(to TransferStatus) []TransferStatus {
	var out []TransferStatus
	for _, from := range []TransferStatus{TransferStatusPending, TransferStatusProcessing} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodWallet       PaymentMethod = "wallet"
)

type Transfer struct {
	ID                  uuid.UUID
	Reference           string
	UserID              uuid.UUID
	BeneficiaryID       uuid.UUID
	SourceAmount        decimal.Decimal
	SourceCurrency      Currency
	DestinationAmount   decimal.Decimal
	DestinationCurrency Currency
	ExchangeRate        decimal.Decimal
	Fee                 decimal.Decimal
	PaymentMethod       PaymentMethod
	Status              TransferStatus
	Purpose             *string
	Notes               *string
	FailureReason       *string
	ExternalReference   *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time

	// Populated by read paths that join the beneficiary.
	Beneficiary *Beneficiary
}

func (t *Transfer) TotalCost() decimal.Decimal {
	return t.SourceAmount.Add(t.Fee)
}

// StatusChange describes a conditional status write: it applies only while
// the stored status is one of From, and, when OwnerID is set, only to that
// user's transfer.
type StatusChange struct {
	To                TransferStatus
	From              []TransferStatus
	OwnerID           *uuid.UUID
	FailureReason     *string
	ExternalReference *string
	CompletedAt       *time.Time
}

type TransferFilter struct {
	Status *TransferStatus
	Limit  int
	Offset int
}
