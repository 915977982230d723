package jwt

import (
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	token, expiresIn, err := svc.GenerateSSEToken("user-1", user.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, role, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, user.RoleManager, role)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	token, _, err := svc.GenerateAccessToken("user-1", "hr@example.com", nil, user.RoleManager)
	require.NoError(t, err)

	_, _, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestValidateSSEToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", "15m").GenerateSSEToken("user-1", user.RoleOwner)
	require.NoError(t, err)

	_, _, err = NewJWTService("secret-b", "15m").ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	_, _, err := NewJWTService("s", "not-a-duration").GenerateAccessToken("u", "e", nil, user.RoleEmployee)
	assert.Error(t, err)
}
