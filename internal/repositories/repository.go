package repositories

import (
	"context"
	"errors"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrDuplicateSlot is returned by DrawRepository.Create when the slot already has a record
	ErrDuplicateSlot = errors.New("draw slot already has a record")
	// ErrNotPending is returned by DrawRepository.Finalize when the record is missing or already terminal
	ErrNotPending = errors.New("draw record is not pending")
	// ErrDrawNotFound is returned when no record exists for a slot
	ErrDrawNotFound = errors.New("draw not found")
)

// DrawRepository is the draw ledger: one immutable record per draw slot
type DrawRepository interface {
	Exists(ctx context.Context, drawID string) (bool, error)
	// Create inserts a pending record and claims the slot. Fails with ErrDuplicateSlot.
	Create(ctx context.Context, draw *models.Draw) (primitive.ObjectID, error)
	// Finalize moves a pending record to a terminal status exactly once.
	Finalize(ctx context.Context, id primitive.ObjectID, status models.DrawStatus, settlement models.Settlement) error
	FindByDrawID(ctx context.Context, drawID string) (*models.Draw, error)
	// ListRecent returns records newest first. Empty seasonID or statuses mean no filter.
	ListRecent(ctx context.Context, seasonID string, statuses []models.DrawStatus, limit int) ([]*models.Draw, error)
	EnsureIndexes(ctx context.Context) error
}

// StandingRepository is the read-only ranking source
type StandingRepository interface {
	// FindTopEligible returns up to limit eligible standings, best first.
	FindTopEligible(ctx context.Context, seasonID string, limit int) ([]*models.TraderStanding, error)
}

// SystemSettingsRepository defines the interface for system settings operations
type SystemSettingsRepository interface {
	GetSettings(ctx context.Context) (*models.SystemSettings, error)
	SetDrawsEnabled(ctx context.Context, enabled bool, updatedBy string) (*models.SystemSettings, error)
}
