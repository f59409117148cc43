package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// signingKeyBytes is the amount of entropy in a generated signing key.
const signingKeyBytes = 64

// Settings holds server-wide values persisted in the settings table.
type Settings struct {
	DB *sql.DB
}

// SigningKey returns the persisted token signing key, generating and storing
// one on first use. Uses INSERT OR IGNORE + re-SELECT so concurrent startups
// agree on a single key.
func (s *Settings) SigningKey(ctx context.Context) ([]byte, error) {
	buf := make([]byte, signingKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('signing_key', ?)`,
		candidate,
	)
	if err != nil {
		return nil, fmt.Errorf("storing signing key: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var key string
	err = s.DB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'signing_key'`,
	).Scan(&key)
	if err != nil {
		return nil, fmt.Errorf("querying signing key: %w", err)
	}

	return []byte(key), nil
}
