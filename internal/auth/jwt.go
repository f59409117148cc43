package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/erazemk/dealership/internal/apperr"
)

// Claims represents the JWT claims. The subject holds the account ID.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a valid token. TokenID and ExpiresAt
// identify the token itself so it can be revoked.
type Identity struct {
	AccountID int64
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// TokenExpiry is the default token lifetime.
const TokenExpiry = 24 * time.Hour

// MinKeyBytes is the shortest accepted HMAC signing key (256 bits).
const MinKeyBytes = 32

var signingMethod = jwt.SigningMethodHS512

// Tokens issues and validates stateless HS512 tokens with a fixed key.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokens returns a token service signing with a copy of key. A zero ttl
// means TokenExpiry.
func NewTokens(key []byte, ttl time.Duration) (*Tokens, error) {
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeyBytes, len(key))
	}
	if ttl <= 0 {
		ttl = TokenExpiry
	}
	return &Tokens{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Issue creates a signed token for the given account.
func (t *Tokens) Issue(accountID int64, username string) (string, error) {
	now := t.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

// Validate checks the signature, structure and expiry of tokenStr and returns
// the identity it carries. Every failure is reported as
// apperr.ErrAuthorization.
func (t *Tokens) Validate(tokenStr string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, errors.Wrapf(apperr.ErrAuthorization, "parsing token: %v", err)
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return Identity{}, errors.Wrap(apperr.ErrAuthorization, "token subject is not an account id")
	}
	if claims.Username == "" {
		return Identity{}, errors.Wrap(apperr.ErrAuthorization, "token has no username")
	}
	if claims.ID == "" {
		return Identity{}, errors.Wrap(apperr.ErrAuthorization, "token has no id")
	}

	return Identity{
		AccountID: accountID,
		Username:  claims.Username,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
