package repository

import (
	"context"

	"github.com/cvforge/auth-service/internal/domain"
)

// IdentityDirectory is the read-only port onto the collaborator that owns
// user records. Lookups return domain.ErrIdentityNotFound for unknown
// emails or IDs; the issuer folds that into its success path so the API
// never reveals which emails are registered.
type IdentityDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
}
