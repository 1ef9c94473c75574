package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemSettings holds runtime switches operators can flip without a redeploy
type SystemSettings struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DrawsEnabled bool               `bson:"drawsEnabled" json:"drawsEnabled"` // gates scheduled draws only
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy    string             `bson:"updatedBy" json:"updatedBy"`
}
