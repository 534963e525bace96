package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/bloodbank/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Token should not be revoked initially.
	revoked, err := IsTokenRevoked(ctx, database, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	// Revoke the token.
	err = RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	// Now it should be revoked.
	revoked, err = IsTokenRevoked(ctx, database, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	// Different JTI should not be revoked.
	revoked, err = IsTokenRevoked(ctx, database, "test-jti-2")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Revoking the same token twice is not an error.
	err := RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("first RevokeToken: %v", err)
	}

	err = RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}
}

func TestRevokeTokenPurgesExpired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := RevokeToken(ctx, database, "old", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken old: %v", err)
	}
	if err := RevokeToken(ctx, database, "fresh", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken fresh: %v", err)
	}

	revoked, _ := IsTokenRevoked(ctx, database, "old")
	if revoked {
		t.Error("expected expired revocation to be purged")
	}
	revoked, _ = IsTokenRevoked(ctx, database, "fresh")
	if !revoked {
		t.Error("expected fresh token to stay revoked")
	}
}

func TestRevokeTokenKeepsLaterExpiry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := RevokeToken(ctx, database, "jti", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := RevokeToken(ctx, database, "jti", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken with past expiry: %v", err)
	}

	revoked, err := IsTokenRevoked(ctx, database, "jti")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected the later expiry to win")
	}
}

func TestRevokeTokenRequiresJTI(t *testing.T) {
	database := db.NewTestDB(t)

	if err := RevokeToken(context.Background(), database, "", time.Now().Add(time.Hour)); err == nil {
		t.Error("expected an error for an empty jti")
	}
}
