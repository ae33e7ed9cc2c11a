package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Passw0rd", nil},
		{"too short", "Pw1", ErrPasswordTooShort},
		{"too long", "Aa1" + strings.Repeat("x", 130), ErrPasswordTooLong},
		{"no upper", "passw0rd", ErrPasswordTooWeak},
		{"no lower", "PASSW0RD", ErrPasswordTooWeak},
		{"no digit", "Password", ErrPasswordTooWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd")
	require.NoError(t, err)
	require.NotEqual(t, "Passw0rd", hash)

	require.True(t, CheckPassword(hash, "Passw0rd"))
	require.False(t, CheckPassword(hash, "passw0rd"))
	require.False(t, CheckPassword(hash, ""))
}

func TestHashPasswordSalts(t *testing.T) {
	first, err := HashPassword("Passw0rd")
	require.NoError(t, err)
	second, err := HashPassword("Passw0rd")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}
