package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.SystemSettingsRepository = (*SystemSettingsRepository)(nil)

// SystemSettingsRepository implements repositories.SystemSettingsRepository
type SystemSettingsRepository struct {
	collection      *mongo.Collection
	defaultsEnabled bool
}

// NewSystemSettingsRepository creates a new SystemSettingsRepository.
// drawsEnabled is the value used until an operator stores one.
func NewSystemSettingsRepository(db *mongo.Database, drawsEnabled bool) *SystemSettingsRepository {
	return &SystemSettingsRepository{
		collection:      db.Collection("system_settings"),
		defaultsEnabled: drawsEnabled,
	}
}

// GetSettings retrieves the current system settings
func (r *SystemSettingsRepository) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.collection.FindOne(ctx, bson.M{}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Nothing stored yet, report the configured default without writing it
		now := time.Now().UTC()
		return &models.SystemSettings{
			DrawsEnabled: r.defaultsEnabled,
			CreatedAt:    now,
			UpdatedAt:    now,
			UpdatedBy:    "config",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SetDrawsEnabled updates only the draw switch, creating the settings document if needed
func (r *SystemSettingsRepository) SetDrawsEnabled(ctx context.Context, enabled bool, updatedBy string) (*models.SystemSettings, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"drawsEnabled": enabled,
			"updatedAt":    now,
			"updatedBy":    updatedBy,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var settings models.SystemSettings
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{}, update, opts).Decode(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
