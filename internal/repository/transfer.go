package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

const transferColumns = `id, reference, user_id, beneficiary_id, source_amount, source_currency,
	destination_amount, destination_currency, exchange_rate, fee, payment_method, status,
	purpose, notes, failure_reason, external_reference, created_at, updated_at, completed_at`

var (
	joinedTransferColumns    = qualify("t", transferColumns)
	joinedBeneficiaryColumns = qualify("b", beneficiaryColumns)
)

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, t *domain.Transfer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.Reference, t.UserID, t.BeneficiaryID, t.SourceAmount, t.SourceCurrency,
		t.DestinationAmount, t.DestinationCurrency, t.ExchangeRate, t.Fee, t.PaymentMethod, t.Status,
		t.Purpose, t.Notes, t.FailureReason, t.ExternalReference, t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id,
	)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetForUser loads a transfer owned by userID together with its beneficiary,
// whether or not the beneficiary is still active.
func (r *TransferRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+joinedTransferColumns+`, `+joinedBeneficiaryColumns+`
		FROM transfers t
		JOIN beneficiaries b ON b.id = t.beneficiary_id
		WHERE t.id = $1 AND t.user_id = $2`,
		id, userID,
	)

	var (
		t domain.Transfer
		b domain.Beneficiary
	)
	dest := append(transferDest(&t), beneficiaryDest(&b)...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUser: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUser: %w", err)
	}
	t.Beneficiary = &b
	return &t, nil
}

// ListByUser returns one page of the user's transfers, newest first, each
// carrying a summary of its beneficiary, plus the total matching count.
func (r *TransferRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TransferFilter) ([]domain.Transfer, int, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)`,
		userID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+joinedTransferColumns+`, b.id, b.first_name, b.last_name, b.country
		FROM transfers t
		JOIN beneficiaries b ON b.id = t.beneficiary_id
		WHERE t.user_id = $1 AND ($2::text IS NULL OR t.status = $2)
		ORDER BY t.created_at DESC
		LIMIT $3 OFFSET $4`,
		userID, status, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	transfers := []domain.Transfer{}
	for rows.Next() {
		var (
			t domain.Transfer
			b domain.Beneficiary
		)
		dest := append(transferDest(&t), &b.ID, &b.FirstName, &b.LastName, &b.Country)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("ListByUser: scan: %w", err)
		}
		t.Beneficiary = &b
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return transfers, total, nil
}

// TransitionStatus applies change only if the stored status is still one of
// change.From. A lost race yields domain.ErrStatusConflict and leaves the row
// untouched.
func (r *TransferRepository) TransitionStatus(ctx context.Context, id uuid.UUID, change domain.StatusChange) (*domain.Transfer, error) {
	from := make([]string, len(change.From))
	for i, s := range change.From {
		from[i] = string(s)
	}

	var owner uuid.NullUUID
	if change.OwnerID != nil {
		owner = uuid.NullUUID{UUID: *change.OwnerID, Valid: true}
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE transfers SET
			status = $1,
			failure_reason = COALESCE($2, failure_reason),
			external_reference = COALESCE($3, external_reference),
			completed_at = COALESCE($4, completed_at),
			updated_at = now()
		WHERE id = $5 AND status = ANY($6::text[]) AND ($7::uuid IS NULL OR user_id = $7)
		RETURNING `+transferColumns,
		change.To, change.FailureReason, change.ExternalReference, change.CompletedAt,
		id, pq.Array(from), owner,
	)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("TransitionStatus: %s -> %s: %w", id, change.To, domain.ErrStatusConflict)
		}
		return nil, fmt.Errorf("TransitionStatus: %w", err)
	}
	return t, nil
}

// ListStale returns transfers that have sat in status since before cutoff.
func (r *TransferRepository) ListStale(ctx context.Context, status domain.TransferStatus, cutoff time.Time, limit int) ([]domain.Transfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3`,
		status, cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListStale: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("ListStale: scan: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStale: rows: %w", err)
	}
	return transfers, nil
}

func transferDest(t *domain.Transfer) []any {
	return []any{
		&t.ID, &t.Reference, &t.UserID, &t.BeneficiaryID, &t.SourceAmount, &t.SourceCurrency,
		&t.DestinationAmount, &t.DestinationCurrency, &t.ExchangeRate, &t.Fee, &t.PaymentMethod, &t.Status,
		&t.Purpose, &t.Notes, &t.FailureReason, &t.ExternalReference, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	}
}

func beneficiaryDest(b *domain.Beneficiary) []any {
	return []any{
		&b.ID, &b.UserID, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.Country, &b.Currency,
		&b.BankName, &b.AccountNumber, &b.RoutingNumber, &b.SwiftCode, &b.IBAN, &b.AccountType,
		&b.IsActive, &b.IsVerified, &b.CreatedAt, &b.UpdatedAt,
	}
}

func scanTransfer(s scanner) (*domain.Transfer, error) {
	var t domain.Transfer
	if err := s.Scan(transferDest(&t)...); err != nil {
		return nil, err
	}
	return &t, nil
}

func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
