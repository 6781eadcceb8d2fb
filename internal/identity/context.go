package identity

import (
	"context"

	"github.com/google/uuid"
)

// Role names match the scheduling scopes.
const (
	RoleClient   = "client"
	RoleProvider = "provider"
)

// Identity is the authenticated caller as supplied by the auth collaborator.
// The core trusts it and does not re-verify.
type Identity struct {
	UserID uuid.UUID
	Role   string
	Email  string
}

type ctxKey string

const identityKey ctxKey = "bookingd.identity"

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the caller identity if present.
func FromContext(ctx context.Context) (Identity, bool) {
	val := ctx.Value(identityKey)
	if val == nil {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok && id.UserID != uuid.Nil
}
