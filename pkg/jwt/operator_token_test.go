package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewOperatorTokenService("secret", time.Hour, "leaderboard-draw")

	token, err := svc.Issue("alice", time.Now())
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleOperator, claims.Role)
	assert.Equal(t, "leaderboard-draw", claims.Issuer)
}

func TestParseRejectsExpired(t *testing.T) {
	svc := NewOperatorTokenService("secret", time.Minute, "leaderboard-draw")

	token, err := svc.Issue("alice", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired), "got %v", err)
}

func TestParseRejectsWrongSecretOrIssuer(t *testing.T) {
	token, err := NewOperatorTokenService("other", time.Hour, "leaderboard-draw").Issue("alice", time.Now())
	require.NoError(t, err)
	_, err = NewOperatorTokenService("secret", time.Hour, "leaderboard-draw").Parse(token)
	assert.Error(t, err)

	token, err = NewOperatorTokenService("secret", time.Hour, "someone-else").Issue("alice", time.Now())
	require.NoError(t, err)
	_, err = NewOperatorTokenService("secret", time.Hour, "leaderboard-draw").Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsOtherRoles(t *testing.T) {
	claims := OperatorClaims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "leaderboard-draw",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewOperatorTokenService("secret", time.Hour, "leaderboard-draw").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	claims := OperatorClaims{Role: RoleOperator, RegisteredClaims: jwt.RegisteredClaims{Issuer: "leaderboard-draw"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewOperatorTokenService("secret", time.Hour, "leaderboard-draw").Parse(token)
	assert.Error(t, err)
}
