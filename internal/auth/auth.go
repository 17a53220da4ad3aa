package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt"
)

const (
	userIdClaim   = "user-id"
	usernameClaim = "username"
)

// Claims is the identity resolved from a verified bearer token.
type Claims struct {
	UserId   int
	Username string
}

// TokenVerifier validates a bearer token and resolves the identity it
// carries. Token issuance is handled by an external system.
type TokenVerifier interface {
	Verify(tokenString string) (Claims, error)
}

type JwtVerifier struct {
	signingKey []byte
}

func NewJwtVerifier(signingKey []byte) *JwtVerifier {
	return &JwtVerifier{signingKey: signingKey}
}

func (v *JwtVerifier) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("invalid token claims")
	}

	userId, ok := mapClaims[userIdClaim].(float64)
	if !ok {
		return Claims{}, fmt.Errorf("invalid user id claim")
	}

	username, _ := mapClaims[usernameClaim].(string)

	return Claims{
		UserId:   int(userId),
		Username: username,
	}, nil
}
