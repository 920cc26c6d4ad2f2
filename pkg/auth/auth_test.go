package auth_test

import (
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/mapworks/lhmap/pkg/auth"
	"github.com/stretchr/testify/require"
)

const secret = "test_secret"

func TestValidateToken(t *testing.T) {
	v := auth.NewValidator(secret)
	c, err := v.ValidateToken(signToken(t, secret, &auth.TokenClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Role: auth.RoleAdmin,
	}))
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, c.Role)
}

func TestValidateTokenRole(t *testing.T) {
	v := auth.NewValidator(secret)
	c, err := v.ValidateToken(signToken(t, secret, &auth.TokenClaims{
		Role: "reader",
	}))
	require.NoError(t, err)
	require.Equal(t, "reader", c.Role)
}

func TestValidateTokenNoExpiry(t *testing.T) {
	v := auth.NewValidator(secret)
	c, err := v.ValidateToken(signToken(t, secret, &auth.TokenClaims{
		Role: auth.RoleAdmin,
	}))
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, c.Role)
}

func TestValidateTokenErrExpired(t *testing.T) {
	v := auth.NewValidator(secret)
	c, err := v.ValidateToken(signToken(t, secret, &auth.TokenClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
		Role: auth.RoleAdmin,
	}))
	require.ErrorIs(t, err, auth.ErrTokenExpired)
	require.Nil(t, c)
}

func TestValidateTokenErrMalformed(t *testing.T) {
	v := auth.NewValidator(secret)
	for _, token := range []string{
		"",
		"not_a_token",
		"a.b",
	} {
		t.Run(token, func(t *testing.T) {
			c, err := v.ValidateToken(token)
			require.ErrorIs(t, err, auth.ErrTokenMalformed)
			require.Nil(t, c)
		})
	}
}

func TestValidateTokenErrWrongSecret(t *testing.T) {
	v := auth.NewValidator(secret)
	c, err := v.ValidateToken(signToken(t, "other_secret", &auth.TokenClaims{
		Role: auth.RoleAdmin,
	}))
	require.ErrorIs(t, err, auth.ErrTokenInvalid)
	require.Nil(t, c)
}

func TestValidateTokenErrWrongMethod(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.TokenClaims{
		Role: auth.RoleAdmin,
	})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	v := auth.NewValidator(secret)
	c, err := v.ValidateToken(s)
	require.ErrorIs(t, err, auth.ErrTokenInvalid)
	require.Nil(t, c)
}

func signToken(
	t *testing.T,
	secret string,
	claims *auth.TokenClaims,
) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}
