package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the only role allowed to trigger draws and change settings
const RoleOperator = "operator"

var ErrInvalidToken = errors.New("invalid token")

// OperatorClaims are the claims carried by operator bearer tokens
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorTokenService signs and verifies operator tokens
type OperatorTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewOperatorTokenService creates a new OperatorTokenService
func NewOperatorTokenService(secret string, ttl time.Duration, issuer string) *OperatorTokenService {
	return &OperatorTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}
}

// TTL returns the lifetime of issued tokens
func (s *OperatorTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given subject
func (s *OperatorTokenService) Issue(subject string, now time.Time) (string, error) {
	claims := OperatorClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign operator token: %w", err)
	}
	return signed, nil
}

// Parse validates the token and returns its claims
func (s *OperatorTokenService) Parse(tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleOperator {
		return nil, fmt.Errorf("%w: role %q is not allowed", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
