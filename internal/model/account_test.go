package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dealership/internal/apperr"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		wantErr   bool
		wantField string
	}{
		{"valid", Credentials{"dealer", "secret"}, false, ""},
		{"empty username", Credentials{"", "secret"}, true, "username"},
		{"blank username", Credentials{"   ", "secret"}, true, "username"},
		{"empty password", Credentials{"dealer", ""}, true, "password"},
		{"password at bcrypt limit", Credentials{"dealer", strings.Repeat("a", 72)}, false, ""},
		{"password over bcrypt limit", Credentials{"dealer", strings.Repeat("a", 73)}, true, "password"},
		{"username too long", Credentials{strings.Repeat("u", 65), "secret"}, true, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrValidation)

			var verr *apperr.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}
}

func TestAccountJSONOmitsHash(t *testing.T) {
	data, err := json.Marshal(Account{ID: 1, Username: "dealer", PasswordHash: "$2a$10$secret"})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
	assert.Contains(t, string(data), `"username":"dealer"`)
}
