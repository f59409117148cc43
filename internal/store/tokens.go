package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Revocations is the list of tokens logged out before they expired.
type Revocations struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *Revocations) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Revoke adds a token's JTI to the revocation list.
func (s *Revocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Expired tokens fail validation anyway.
	_, _ = s.DB.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, s.now().UTC(),
	)

	return nil
}

// IsRevoked checks if a token's JTI has been revoked.
func (s *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}
