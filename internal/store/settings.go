package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

const settingJWTSecret = "jwt_secret"

// GetSetting returns the value stored under key, or "" and false if unset.
func GetSetting(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

// ensureSetting stores candidate under key unless a value already exists and
// returns whichever value is stored afterwards.
func ensureSetting(ctx context.Context, q Querier, key, candidate string) (string, error) {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	value, ok, err := GetSetting(ctx, q, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("setting %s missing after insert", key)
	}
	return value, nil
}

// GetJWTSecret returns the token signing secret, generating a random 32-byte
// hex secret on first use. Servers racing on an empty database agree on one.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	if secret, ok, err := GetSetting(ctx, q, settingJWTSecret); err != nil || ok {
		return secret, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return ensureSetting(ctx, q, settingJWTSecret, hex.EncodeToString(buf))
}
