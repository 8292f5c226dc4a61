package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("user-1", []string{"sales"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, []string{"sales"}, claims.Roles)

	SetSecret("other-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	SetSecret("test-secret")
	token, err := GenerateToken("user-1", nil, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}
