package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

// ValidationRepository persists validation codes.
type ValidationRepository struct {
	db *sqlx.DB
}

// NewValidationRepository constructs a validation repository.
func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// Upsert stores a code for the identity tuple. An existing unexpired row
// keeps its code and only refreshes issued_at; an expired row is reissued
// with the fresh code. The effective code is returned either way.
func (r *ValidationRepository) Upsert(ctx context.Context, code *models.ValidationCode, expireBefore time.Time) (string, error) {
	const query = `INSERT INTO validation_codes (firstname, lastname, email, code, issued_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (firstname, lastname, email) DO UPDATE SET
  code = CASE WHEN validation_codes.issued_at < $6 THEN EXCLUDED.code ELSE validation_codes.code END,
  issued_at = EXCLUDED.issued_at
RETURNING code`
	var effective string
	if err := r.db.GetContext(ctx, &effective, query,
		code.FirstName, code.LastName, code.Email, code.Code, code.IssuedAt, expireBefore); err != nil {
		return "", fmt.Errorf("upsert validation code: %w", err)
	}
	return effective, nil
}

// FindByCode looks up the identity tuple a code was issued for, ignoring
// codes issued before the cutoff.
func (r *ValidationRepository) FindByCode(ctx context.Context, code string, issuedAfter time.Time) (*models.ValidationCode, error) {
	const query = `SELECT id, firstname, lastname, email, code, issued_at
FROM validation_codes WHERE code = $1 AND issued_at >= $2`
	var vc models.ValidationCode
	if err := r.db.GetContext(ctx, &vc, query, code, issuedAfter); err != nil {
		return nil, err
	}
	return &vc, nil
}

// Delete removes a consumed code.
func (r *ValidationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM validation_codes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete validation code: %w", err)
	}
	return nil
}

// DeleteIssuedBefore sweeps expired codes and returns how many were removed.
func (r *ValidationRepository) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM validation_codes WHERE issued_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep validation codes: %w", err)
	}
	return res.RowsAffected()
}
