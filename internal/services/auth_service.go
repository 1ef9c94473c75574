package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type authService struct {
	operatorKeyHash []byte
	tokens          *jwt.OperatorTokenService
}

// NewAuthService creates a new AuthService implementation.
// operatorKeyHash is the bcrypt hash of the shared operator key.
func NewAuthService(operatorKeyHash string, tokens *jwt.OperatorTokenService) AuthService {
	return &authService{
		operatorKeyHash: []byte(operatorKeyHash),
		tokens:          tokens,
	}
}

// IssueToken verifies the operator key and signs a bearer token
func (s *authService) IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	if err := bcrypt.CompareHashAndPassword(s.operatorKeyHash, []byte(req.OperatorKey)); err != nil {
		slog.Warn("Rejected operator token request", "subject", req.Subject)
		return nil, ErrInvalidOperatorKey
	}

	subject := req.Subject
	if subject == "" {
		subject = jwt.RoleOperator
	}
	token, err := s.tokens.Issue(subject, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.TokenResponse{
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}
