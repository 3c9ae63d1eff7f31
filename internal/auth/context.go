package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
)

// Identity is the authenticated caller, loaded from the users table after
// the bearer token was verified.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	KYCStatus domain.KYCStatus
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}
