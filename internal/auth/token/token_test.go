package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomTokenIsUnique(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

func TestHashSHA256(t *testing.T) {
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashSHA256("hello"))
}

func TestSignAccess(t *testing.T) {
	userID := uuid.New()
	raw, err := SignAccess("secret", userID, []string{"admin"}, time.Now(), time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, userID.String(), claims["sub"])
	assert.Equal(t, AccessType, claims["type"])
	assert.Equal(t, []interface{}{"admin"}, claims["roles"])
}
