package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cvforge/auth-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, rec *domain.TokenRecord) error {
	query := `
		INSERT INTO tokens (value_hash, kind, subject_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		rec.ValueHash, rec.Kind, rec.SubjectID, rec.IssuedAt, rec.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateToken
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Find(ctx context.Context, kind domain.TokenKind, valueHash string) (*domain.TokenRecord, error) {
	query := `
		SELECT value_hash, kind, subject_id, issued_at, expires_at
		FROM tokens
		WHERE value_hash = $1 AND kind = $2`

	row := r.pool.QueryRow(ctx, query, valueHash, kind)
	return scanToken(row)
}

func (r *TokenRepository) Delete(ctx context.Context, kind domain.TokenKind, valueHash string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM tokens WHERE value_hash = $1 AND kind = $2`,
		valueHash, kind,
	)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Exchange consumes an unexpired magic-link token and mints the session in
// one transaction. The conditional DELETE ... RETURNING is what makes
// consumption exactly-once: of two racing verifications, only one sees the
// deleted row; the other gets no rows and reports the token as absent.
func (r *TokenRepository) Exchange(ctx context.Context, magicHash string, now time.Time, session *domain.TokenRecord) (*domain.TokenRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin exchange: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		DELETE FROM tokens
		WHERE value_hash = $1 AND kind = $2 AND expires_at > $3
		RETURNING value_hash, kind, subject_id, issued_at, expires_at`

	row := tx.QueryRow(ctx, query, magicHash, domain.KindMagicLink, now)
	consumed, err := scanToken(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO tokens (value_hash, kind, subject_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.ValueHash, session.Kind, session.SubjectID, session.IssuedAt, session.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit exchange: %w", err)
	}
	return consumed, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tokens WHERE expires_at <= $1`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*domain.TokenRecord, error) {
	var rec domain.TokenRecord
	err := row.Scan(&rec.ValueHash, &rec.Kind, &rec.SubjectID, &rec.IssuedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &rec, nil
}
