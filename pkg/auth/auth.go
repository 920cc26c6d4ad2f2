// Package auth validates bearer tokens authorizing mutating requests.
package auth

import (
	"errors"

	jwt "github.com/dgrijalva/jwt-go"
)

// RoleAdmin authorizes mutating requests.
const RoleAdmin = "admin"

type TokenClaims struct {
	jwt.StandardClaims
	Role string `json:"role"`
}

var ErrTokenExpired = errors.New("token expired")
var ErrTokenMalformed = errors.New("token malformed or empty")
var ErrTokenInvalid = errors.New("token invalid")

// Validator verifies HS256 signed bearer tokens.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// ValidateToken verifies bearerToken and returns its claims.
func (v *Validator) ValidateToken(bearerToken string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		bearerToken,
		&TokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return v.secret, nil
		},
	)

	if e, ok := err.(*jwt.ValidationError); ok {
		if e.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		if e.Errors&jwt.ValidationErrorMalformed != 0 {
			return nil, ErrTokenMalformed
		}
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
