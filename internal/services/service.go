package services

import (
	"context"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/payoutrail"
	"github.com/shopspring/decimal"
)

// DrawService defines the interface for draw-related operations
type DrawService interface {
	// RunDraw attempts the draw for the slot containing now. It never panics
	// and always reports what happened.
	RunDraw(ctx context.Context, now time.Time, trigger models.DrawTrigger) DrawResult

	// GetDraw returns the record of one slot
	GetDraw(ctx context.Context, drawID string) (*models.Draw, error)

	// ListDraws returns ledger records newest first
	ListDraws(ctx context.Context, seasonID string, statuses []models.DrawStatus, limit int) ([]*models.Draw, error)
}

// SystemSettingsService defines the interface for runtime settings
type SystemSettingsService interface {
	GetSettings(ctx context.Context) (*models.SystemSettings, error)
	SetDrawsEnabled(ctx context.Context, enabled bool, updatedBy string) (*models.SystemSettings, error)
	// ScheduledDrawsEnabled reports whether the timer may run draws
	ScheduledDrawsEnabled(ctx context.Context) bool
}

// AuthService defines the interface for operator authentication
type AuthService interface {
	IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error)
}

// Ranker produces the ranked contenders of a season
type Ranker interface {
	TopEligible(ctx context.Context, seasonID utils.SeasonID, n int) ([]*models.TraderStanding, error)
}

// PayoutRail signs and broadcasts a transfer and returns its transaction id
type PayoutRail interface {
	Transfer(ctx context.Context, req payoutrail.TransferRequest) (string, error)
}

// PoolOracle reports the current rewards pool in SOL
type PoolOracle interface {
	PoolSize(ctx context.Context) (decimal.Decimal, error)
}
