package store

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a logged-out token until it would have expired anyway.
// Entries whose expiry has passed are dropped on the way.
func RevokeToken(ctx context.Context, q Querier, jti string, expiresAt time.Time) error {
	if jti == "" {
		return fmt.Errorf("revoking token: empty jti")
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO UPDATE SET expires_at = MAX(expires_at, excluded.expires_at)`,
		jti, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	if err := PurgeRevokedTokens(ctx, q, time.Now()); err != nil {
		return err
	}
	return nil
}

// PurgeRevokedTokens deletes revocations that expired before now.
func PurgeRevokedTokens(ctx context.Context, q Querier, now time.Time) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC()); err != nil {
		return fmt.Errorf("purging revoked tokens: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether jti is on the revocation list.
func IsTokenRevoked(ctx context.Context, q Querier, jti string) (bool, error) {
	var revoked bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked); err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
