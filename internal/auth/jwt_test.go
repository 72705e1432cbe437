package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	signed, err := GenerateAccessToken(42, 3)
	require.NoError(t, err)

	token, err := VerifyJWT(signed)
	require.NoError(t, err)
	userID, version, err := GetDataFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	assert.Equal(t, 3, version)
}

func TestVerifyRejects(t *testing.T) {
	SetSecret("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":       1,
		"token_version": 0,
		"exp":           time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = VerifyJWT(signed)
	assert.Error(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1, "token_version": 0})
	signed, err = unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = VerifyJWT(signed)
	assert.Error(t, err)
}

func TestGetDataFromTokenMissingClaims(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(1)})
	_, _, err := GetDataFromToken(token)
	assert.ErrorContains(t, err, "token_version")
}
