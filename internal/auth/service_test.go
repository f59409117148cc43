package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/dealership/internal/apperr"
	"github.com/erazemk/dealership/internal/model"
)

// memAccounts is an in-memory AccountStore.
type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int64
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[string]*model.Account{}}
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Insert(_ context.Context, username, passwordHash string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; ok {
		return nil, apperr.ErrConflict
	}
	m.nextID++
	a := &model.Account{ID: m.nextID, Username: username, PasswordHash: passwordHash}
	m.accounts[username] = a
	cp := *a
	return &cp, nil
}

func newTestService(t *testing.T) (*Service, *memAccounts, *Tokens) {
	t.Helper()
	accounts := newMemAccounts()
	tokens := newTestTokens(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(accounts, NewBcryptHasher(bcrypt.MinCost), tokens, logger), accounts, tokens
}

func TestRegister(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "dealer", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
	assert.Equal(t, "dealer", account.Username)

	stored, err := accounts.FindByUsername(ctx, "dealer")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}

func TestRegisterDuplicate(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dealer", "first")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dealer", "second")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, accounts.accounts, 1)
}

// raceAccounts hides existing rows from the pre-check, like a concurrent
// registration that commits between the lookup and the insert.
type raceAccounts struct {
	*memAccounts
}

func (r raceAccounts) FindByUsername(context.Context, string) (*model.Account, error) {
	return nil, nil
}

func TestRegisterLostRaceIsConflict(t *testing.T) {
	accounts := raceAccounts{newMemAccounts()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(accounts, NewBcryptHasher(bcrypt.MinCost), newTestTokens(t), logger)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dealer", "first")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dealer", "second")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "password")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, "dealer", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Empty(t, accounts.accounts)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "dealer", "s3cret")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "dealer", "s3cret")
	require.NoError(t, err)

	identity, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, identity.AccountID)
	assert.Equal(t, "dealer", identity.Username)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dealer", "s3cret")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "dealer", "wrong")
	_, unknownUser := svc.Login(ctx, "nobody", "s3cret")

	require.ErrorIs(t, wrongPassword, apperr.ErrAuthentication)
	require.ErrorIs(t, unknownUser, apperr.ErrAuthentication)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}
