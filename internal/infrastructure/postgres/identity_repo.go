package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cvforge/auth-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdentityRepository reads the identities table owned by the profile
// backend. This service never writes to it.
type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `
		SELECT id, email, name, created_at
		FROM identities
		WHERE lower(email) = lower($1)`

	row := r.pool.QueryRow(ctx, query, email)
	return scanIdentity(row)
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	query := `
		SELECT id, email, name, created_at
		FROM identities
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanIdentity(row)
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var ident domain.Identity
	err := row.Scan(&ident.ID, &ident.Email, &ident.Name, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	return &ident, nil
}
