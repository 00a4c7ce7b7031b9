package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort-roster-backend/pkg/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret", 7*24*time.Hour)

	token, err := svc.GenerateToken("user-1", "a@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)

	// The validity window is the configured TTL from issuance.
	assert.InDelta(t, time.Now().Add(7*24*time.Hour).Unix(), claims.Exp, 5)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateToken("user-1", "a@example.com")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	now := time.Now()
	claims := &models.TokenClaims{
		UserID: "user-1",
		Email:  "a@example.com",
		Exp:    now.Add(-time.Minute).Unix(),
		Iat:    now.Add(-2 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(tok)
		assert.Error(t, err, "token %q must not validate", tok)
	}
}

func TestValidateTokenRejectsUnsignedAlg(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	claims := &models.TokenClaims{
		UserID: "user-1",
		Email:  "a@example.com",
		Exp:    time.Now().Add(time.Hour).Unix(),
		Iat:    time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
