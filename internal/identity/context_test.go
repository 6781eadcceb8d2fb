package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestIdentityRoundTrip(t *testing.T) {
	id := Identity{UserID: uuid.New(), Role: RoleClient, Email: "a@example.com"}
	ctx := WithIdentity(context.Background(), id)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got != id {
		t.Fatalf("got %+v, want %+v", got, id)
	}
}

func TestMissingIdentity(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no identity in empty context")
	}
}

func TestZeroUserIDRejected(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Role: RoleClient})
	if _, ok := FromContext(ctx); ok {
		t.Fatal("expected identity with nil user id to be rejected")
	}
}
