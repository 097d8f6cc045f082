package utils

import (
	"errors"
	"fmt"
	"time"

	appErrors "lab-checkout/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "lab-checkout"

// SessionClaims binds a signed token to a server-side session.
type SessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func GenerateToken(userID, sessionID, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, issuer and expiry. Any failure is reported
// as ErrInvalidToken.
func ValidateToken(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", appErrors.ErrInvalidToken)
		}
		return nil, appErrors.ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}
