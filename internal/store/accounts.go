package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/dealership/internal/apperr"
	"github.com/erazemk/dealership/internal/model"
)

// Accounts persists dealer accounts.
type Accounts struct {
	DB *sql.DB
}

// Insert creates an account. A username that is already taken yields
// apperr.ErrConflict; the unique index makes this safe under concurrent
// registrations.
func (s *Accounts) Insert(ctx context.Context, username, passwordHash string) (*model.Account, error) {
	result, err := s.DB.ExecContext(ctx,
		`INSERT INTO accounts (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting account id: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns an account by ID, or nil if it does not exist.
func (s *Accounts) Get(ctx context.Context, id int64) (*model.Account, error) {
	a := &model.Account{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// FindByUsername returns an account by exact (case-sensitive) username, or
// nil if there is none.
func (s *Accounts) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	a := &model.Account{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM accounts WHERE username = ?`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by username: %w", err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
