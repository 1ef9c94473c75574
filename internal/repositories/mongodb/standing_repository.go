package mongodb

import (
	"context"
	"fmt"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure StandingRepository implements the interface
var _ repositories.StandingRepository = (*StandingRepository)(nil)

// StandingRepository reads season standings from daily_traders joined with users
type StandingRepository struct {
	collection *mongo.Collection
	users      string
}

// NewStandingRepository creates a new StandingRepository
func NewStandingRepository(db *mongo.Database) *StandingRepository {
	return &StandingRepository{
		collection: db.Collection("daily_traders"),
		users:      "users",
	}
}

// EligibleFilter is the canonical eligibility predicate. A missing or null
// soldPrint is eligible; only an explicit true disqualifies.
func EligibleFilter(seasonID string) bson.M {
	return bson.M{
		"seasonId":  seasonID,
		"isActive":  true,
		"soldPrint": bson.M{"$ne": true},
	}
}

// rankingPipeline sorts by realized profit with _id as a stable tie-break
func (r *StandingRepository) rankingPipeline(seasonID string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: EligibleFilter(seasonID)}},
		{{Key: "$sort", Value: bson.D{{Key: "realizedUsdPnl", Value: -1}, {Key: "userId", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.users,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"userId":         1,
			"wallet":         1,
			"seasonId":       1,
			"isActive":       1,
			"soldPrint":      bson.M{"$eq": bson.A{"$soldPrint", true}},
			"realizedUsdPnl": bson.M{"$ifNull": bson.A{"$realizedUsdPnl", 0}},
			"walletOriginal": bson.M{"$ifNull": bson.A{"$user.walletOriginal", "$wallet"}},
			"name":           bson.M{"$ifNull": bson.A{"$user.name", ""}},
			"avatar":         bson.M{"$ifNull": bson.A{"$user.avatar", ""}},
		}}},
	}
}

// FindTopEligible returns up to limit eligible standings ordered by realized profit
func (r *StandingRepository) FindTopEligible(ctx context.Context, seasonID string, limit int) ([]*models.TraderStanding, error) {
	if limit <= 0 {
		return []*models.TraderStanding{}, nil
	}
	cursor, err := r.collection.Aggregate(ctx, r.rankingPipeline(seasonID, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate standings for season %s: %w", seasonID, err)
	}
	defer cursor.Close(ctx)

	var standings []*models.TraderStanding
	if err := cursor.All(ctx, &standings); err != nil {
		return nil, fmt.Errorf("failed to decode standings: %w", err)
	}
	if standings == nil {
		standings = []*models.TraderStanding{}
	}
	return standings, nil
}
