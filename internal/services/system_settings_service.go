package services

import (
	"context"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"golang.org/x/exp/slog"
)

// SystemSettingsServiceImpl implements SystemSettingsService
type SystemSettingsServiceImpl struct {
	settingsRepo repositories.SystemSettingsRepository
}

// NewSystemSettingsService creates a new SystemSettingsService
func NewSystemSettingsService(settingsRepo repositories.SystemSettingsRepository) SystemSettingsService {
	return &SystemSettingsServiceImpl{
		settingsRepo: settingsRepo,
	}
}

// GetSettings retrieves the current system settings
func (s *SystemSettingsServiceImpl) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	return s.settingsRepo.GetSettings(ctx)
}

// SetDrawsEnabled flips the scheduled draw switch
func (s *SystemSettingsServiceImpl) SetDrawsEnabled(ctx context.Context, enabled bool, updatedBy string) (*models.SystemSettings, error) {
	settings, err := s.settingsRepo.SetDrawsEnabled(ctx, enabled, updatedBy)
	if err != nil {
		return nil, err
	}
	slog.Info("Scheduled draws toggled", "enabled", enabled, "updatedBy", updatedBy)
	return settings, nil
}

// ScheduledDrawsEnabled reads the switch. A read failure skips the tick rather than paying out blind.
func (s *SystemSettingsServiceImpl) ScheduledDrawsEnabled(ctx context.Context) bool {
	settings, err := s.settingsRepo.GetSettings(ctx)
	if err != nil {
		slog.Error("Failed to read draw settings, skipping scheduled draw", "error", err)
		return false
	}
	return settings.DrawsEnabled
}
