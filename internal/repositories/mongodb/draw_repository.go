package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure DrawRepository implements the interface
var _ repositories.DrawRepository = (*DrawRepository)(nil)

// DrawRepository implements the repositories.DrawRepository interface
type DrawRepository struct {
	collection *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) *DrawRepository {
	return &DrawRepository{
		collection: db.Collection("draws"),
	}
}

// EnsureIndexes creates the unique slot index the idempotency check relies on
func (r *DrawRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "drawId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("drawId_unique"),
		},
		{
			Keys:    bson.D{{Key: "seasonId", Value: 1}, {Key: "drawTime", Value: -1}},
			Options: options.Index().SetName("season_drawTime"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "drawTime", Value: -1}},
			Options: options.Index().SetName("status_drawTime"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create draw indexes: %w", err)
	}
	return nil
}

// Exists reports whether any record (of any status) exists for the slot
func (r *DrawRepository) Exists(ctx context.Context, drawID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"drawId": drawID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check draw %s: %w", drawID, err)
	}
	return n > 0, nil
}

// Create inserts a pending draw record
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) (primitive.ObjectID, error) {
	if draw.Status != models.DrawStatusPending {
		return primitive.NilObjectID, fmt.Errorf("draw %s must be created pending, got %q", draw.DrawID, draw.Status)
	}
	now := time.Now().UTC()
	draw.CreatedAt = now
	draw.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, draw)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, fmt.Errorf("draw %s: %w", draw.DrawID, repositories.ErrDuplicateSlot)
		}
		return primitive.NilObjectID, fmt.Errorf("failed to insert draw %s: %w", draw.DrawID, err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	draw.ID = id
	return id, nil
}

// Finalize sets the terminal status. The status filter makes the transition one-way.
func (r *DrawRepository) Finalize(ctx context.Context, id primitive.ObjectID, status models.DrawStatus, settlement models.Settlement) error {
	if !status.IsTerminal() {
		return fmt.Errorf("cannot finalize draw to non-terminal status %q", status)
	}
	now := time.Now().UTC()
	set := bson.M{
		"status":      status,
		"updatedAt":   now,
		"finalizedAt": now,
	}
	if settlement.TxID != "" {
		set["txSignature"] = settlement.TxID
		set["txUrl"] = settlement.TxURL
	}
	if settlement.Reason != "" {
		set["errorMessage"] = settlement.Reason
	}

	filter := bson.M{"_id": id, "status": models.DrawStatusPending}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to finalize draw %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("draw %s: %w", id.Hex(), repositories.ErrNotPending)
	}
	return nil
}

// FindByDrawID finds a draw by its slot id
func (r *DrawRepository) FindByDrawID(ctx context.Context, drawID string) (*models.Draw, error) {
	var draw models.Draw
	err := r.collection.FindOne(ctx, bson.M{"drawId": drawID}).Decode(&draw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("draw %s: %w", drawID, repositories.ErrDrawNotFound)
		}
		return nil, fmt.Errorf("failed to find draw %s: %w", drawID, err)
	}
	return &draw, nil
}

// ListRecent lists draws newest first
func (r *DrawRepository) ListRecent(ctx context.Context, seasonID string, statuses []models.DrawStatus, limit int) ([]*models.Draw, error) {
	filter := bson.M{}
	if seasonID != "" {
		filter["seasonId"] = seasonID
	}
	if len(statuses) == 1 {
		filter["status"] = statuses[0]
	} else if len(statuses) > 1 {
		filter["status"] = bson.M{"$in": statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "drawTime", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute find query: %w", err)
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, fmt.Errorf("failed to decode draws: %w", err)
	}

	// Return an empty slice instead of nil if no documents are found
	if draws == nil {
		draws = []*models.Draw{}
	}
	return draws, nil
}
