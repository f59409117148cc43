package model

import (
	"context"
	"time"
)

// Account is a dealer login. The hash is never serialized.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials is a username/password pair as submitted by a client.
type Credentials struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,bcryptlen"`
}

// Validate checks that both fields are present and within length limits.
func (c Credentials) Validate() error {
	return validateStruct(context.Background(), c)
}
