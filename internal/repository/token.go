package repository

import (
	"context"
	"time"

	"github.com/cvforge/auth-service/internal/domain"
)

type TokenRepository interface {
	// Create inserts a whole record. Returns domain.ErrDuplicateToken if a
	// live record of the same kind already has this value hash.
	Create(ctx context.Context, rec *domain.TokenRecord) error

	// Find returns the record for (kind, valueHash) or domain.ErrTokenNotFound.
	Find(ctx context.Context, kind domain.TokenKind, valueHash string) (*domain.TokenRecord, error)

	// Delete removes a record if present. Deleting an absent record is not
	// an error; logout and expiry cleanup rely on that.
	Delete(ctx context.Context, kind domain.TokenKind, valueHash string) error

	// Exchange atomically consumes the magic-link record identified by
	// magicHash (only if it is still unexpired at now) and inserts the
	// session record, in one transaction. If the magic-link record is
	// absent — never issued, already consumed, or swept — it returns
	// domain.ErrTokenNotFound and inserts nothing. Under two racing calls
	// for the same hash at most one succeeds.
	Exchange(ctx context.Context, magicHash string, now time.Time, session *domain.TokenRecord) (*domain.TokenRecord, error)

	// DeleteExpired removes every record past its expiry and reports how
	// many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
