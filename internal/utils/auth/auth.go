// Package auth verifies user tokens. Token issuance belongs to the
// external authentication collaborator; this core only checks the shared
// secret signature and extracts the user id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenExpire = 3 * time.Hour

var ErrTokenExpired = errors.New("token expired")

type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// BuildJWTString mints a token the way the external authenticator does.
// Used by tests and by local tooling against a dev instance.
func BuildJWTString(id string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpire)),
			},
			UserID: id,
		},
	)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("JWT signing: %w", err)
	}
	return tokenString, nil
}

func CheckToken(tokenString string, secret []byte) (Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token %w", err)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		return Claims{}, ErrTokenExpired
	}

	return *claims, nil
}
