package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/erazemk/dealership/internal/apperr"
	"github.com/erazemk/dealership/internal/model"
)

// AccountStore is the credential storage the service depends on.
type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	Insert(ctx context.Context, username, passwordHash string) (*model.Account, error)
}

// Service registers dealers and logs them in.
type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   *Tokens
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the service to its collaborators. A nil logger falls back
// to slog.Default.
func NewService(accounts AccountStore, hasher PasswordHasher, tokens *Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a dealer account. A taken username yields
// apperr.ErrConflict, both from the pre-check and from a lost insert race.
func (s *Service) Register(ctx context.Context, username, password string) (*model.Account, error) {
	if err := (model.Credentials{Username: username, Password: password}).Validate(); err != nil {
		return nil, err
	}

	existing, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "looking up username")
	}
	if existing != nil {
		return nil, errors.WithStack(apperr.ErrConflict)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	account, err := s.accounts.Insert(ctx, username, hash)
	if err != nil {
		return nil, errors.Wrap(err, "inserting account")
	}

	s.logger.InfoContext(ctx, "dealer registered", "account_id", account.ID, "username", account.Username)
	return account, nil
}

// Login checks the credentials and returns a signed token. Unknown usernames
// and wrong passwords both yield apperr.ErrAuthentication.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return "", errors.Wrap(err, "looking up username")
	}

	if account == nil {
		// Burn a comparison so unknown usernames take as long as bad passwords.
		s.hasher.Verify(password, s.timingHash())
		s.logger.WarnContext(ctx, "login failed", "username", username)
		return "", errors.WithStack(apperr.ErrAuthentication)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.logger.WarnContext(ctx, "login failed", "username", username)
		return "", errors.WithStack(apperr.ErrAuthentication)
	}

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return "", errors.Wrap(err, "issuing token")
	}

	s.logger.InfoContext(ctx, "dealer logged in", "account_id", account.ID, "username", account.Username)
	return token, nil
}

func (s *Service) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-guard")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
