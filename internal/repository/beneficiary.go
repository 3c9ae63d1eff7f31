package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

const beneficiaryColumns = `id, user_id, first_name, last_name, email, phone, country, currency,
	bank_name, account_number, routing_number, swift_code, iban, account_type,
	is_active, is_verified, created_at, updated_at`

type BeneficiaryRepository struct {
	db *sql.DB
}

func NewBeneficiaryRepository(db *sql.DB) *BeneficiaryRepository {
	return &BeneficiaryRepository{db: db}
}

func (r *BeneficiaryRepository) Create(ctx context.Context, b *domain.Beneficiary) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO beneficiaries (`+beneficiaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		b.ID, b.UserID, b.FirstName, b.LastName, b.Email, b.Phone, b.Country, b.Currency,
		b.BankName, b.AccountNumber, b.RoutingNumber, b.SwiftCode, b.IBAN, b.AccountType,
		b.IsActive, b.IsVerified, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetActiveForUser returns the beneficiary only if it belongs to userID and
// has not been deactivated.
func (r *BeneficiaryRepository) GetActiveForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE`,
		id, userID,
	)
	b, err := scanBeneficiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetActiveForUser: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetActiveForUser: %w", err)
	}
	return b, nil
}

func (r *BeneficiaryRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries
		WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveByUser: %w", err)
	}
	defer rows.Close()

	beneficiaries := []domain.Beneficiary{}
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActiveByUser: scan: %w", err)
		}
		beneficiaries = append(beneficiaries, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveByUser: rows: %w", err)
	}
	return beneficiaries, nil
}

func (r *BeneficiaryRepository) Update(ctx context.Context, b *domain.Beneficiary) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE beneficiaries SET
			first_name = $1, last_name = $2, email = $3, phone = $4, country = $5, currency = $6,
			bank_name = $7, account_number = $8, routing_number = $9, swift_code = $10, iban = $11,
			account_type = $12, updated_at = $13
		WHERE id = $14 AND user_id = $15 AND is_active = TRUE`,
		b.FirstName, b.LastName, b.Email, b.Phone, b.Country, b.Currency,
		b.BankName, b.AccountNumber, b.RoutingNumber, b.SwiftCode, b.IBAN,
		b.AccountType, b.UpdatedAt,
		b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRow("Update", res)
}

func (r *BeneficiaryRepository) Deactivate(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE beneficiaries SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return requireRow("Deactivate", res)
}

func requireRow(op string, res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func scanBeneficiary(s scanner) (*domain.Beneficiary, error) {
	var b domain.Beneficiary
	if err := s.Scan(beneficiaryDest(&b)...); err != nil {
		return nil, err
	}
	return &b, nil
}
