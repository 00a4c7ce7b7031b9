package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cohort-roster-backend/pkg/models"
)

// JWTService issues and validates signed bearer tokens. The signing key and
// validity window come from configuration, injected once at startup.
type JWTService struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// NewJWTService creates a JWT service with the given signing key and token
// lifetime.
func NewJWTService(secretKey string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// GenerateToken issues a token encoding the user id and email, valid for
// the configured lifetime from now.
func (j *JWTService) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Exp:    now.Add(j.tokenTTL).Unix(),
		Iat:    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiry and returns the claims.
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if time.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("token expired")
	}

	return claims, nil
}
