package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(expiry time.Duration) *JWTManager {
	return NewJWTManager("test-secret", expiry, "fsp-test")
}

func TestIssueAndVerify(t *testing.T) {
	manager := newTestManager(time.Minute)

	token, err := manager.Issue("user-123", "athlete")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID())
	require.Equal(t, "athlete", claims.Role)
	require.Equal(t, "fsp-test", claims.Issuer)
}

func TestIssueRequiresSubjectAndRole(t *testing.T) {
	manager := newTestManager(time.Minute)

	_, err := manager.Issue("", "athlete")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Issue("user-123", "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	manager := newTestManager(time.Minute)

	_, err := manager.Verify("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = manager.Verify("   ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	manager := newTestManager(time.Minute)
	other := NewJWTManager("other-secret", time.Minute, "fsp-test")

	token, err := manager.Issue("user-123", "sponsor")
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := &JWTManager{secret: []byte("test-secret"), expiry: -time.Minute, issuer: "fsp-test"}

	token, err := manager.Issue("user-123", "region")
	require.NoError(t, err)

	_, err = manager.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewJWTManagerDefaultsExpiry(t *testing.T) {
	manager := NewJWTManager("secret", 0, "fsp-test")

	require.Equal(t, DefaultExpiry, manager.expiry)
}

func TestTokenFromHeader(t *testing.T) {
	token, err := TokenFromHeader("Bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	token, err = TokenFromHeader("bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	_, err = TokenFromHeader("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Basic dXNlcjpwYXNz")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Bearer")
	require.ErrorIs(t, err, ErrMissingToken)
}
