package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawStatus represents the status of a draw
type DrawStatus string

const (
	DrawStatusPending   DrawStatus = "pending"
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusFailed    DrawStatus = "failed"
)

// IsTerminal reports whether the status can no longer change
func (s DrawStatus) IsTerminal() bool {
	return s == DrawStatusCompleted || s == DrawStatusFailed
}

// DrawTrigger records what started a draw
type DrawTrigger string

const (
	DrawTriggerScheduled DrawTrigger = "scheduled"
	DrawTriggerManual    DrawTrigger = "manual"
)

// ParticipantsPerDraw is the fixed number of contenders in every draw
const ParticipantsPerDraw = 3

// DrawParticipant is a snapshot of one contender taken when the draw was created.
// Name and avatar are copied in so the record stays accurate if the profile changes later.
type DrawParticipant struct {
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Wallet         string             `bson:"wallet" json:"wallet"`
	WalletOriginal string             `bson:"walletOriginal" json:"walletOriginal"`
	Name           string             `bson:"name" json:"name"`
	Avatar         string             `bson:"avatar" json:"avatar"`
	Rank           int                `bson:"rank" json:"rank"`             // 1, 2 or 3
	RealizedPnl    float64            `bson:"realizedPnl" json:"realizedPnl"`
	WinChance      int                `bson:"winChance" json:"winChance"` // 40, 35 or 25
}

// Draw is the immutable audit record of one draw slot
type Draw struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DrawID          string             `bson:"drawId" json:"drawId"`     // slot, YYYY-MM-DD-HH
	SeasonID        string             `bson:"seasonId" json:"seasonId"` // YYYY-MM-DD
	DrawTime        time.Time          `bson:"drawTime" json:"drawTime"`
	Participants    []DrawParticipant  `bson:"participants" json:"participants"`
	WinnerID        primitive.ObjectID `bson:"winnerId" json:"winnerId"`
	WinnerWallet    string             `bson:"winnerWallet" json:"winnerWallet"`
	WinnerName      string             `bson:"winnerName" json:"winnerName"`
	WinnerRank      int                `bson:"winnerRank" json:"winnerRank"`
	PrizeAmount     float64            `bson:"prizeAmount" json:"prizeAmount"` // SOL
	PrizeLamports   int64              `bson:"prizeLamports" json:"prizeLamports"`
	TotalPoolAtDraw float64            `bson:"totalPoolAtDraw" json:"totalPoolAtDraw"` // SOL
	TxSignature     string             `bson:"txSignature,omitempty" json:"txSignature,omitempty"`
	TxURL           string             `bson:"txUrl,omitempty" json:"txUrl,omitempty"`
	Status          DrawStatus         `bson:"status" json:"status"`
	ErrorMessage    string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	Trigger         DrawTrigger        `bson:"trigger" json:"trigger"`
	RunID           string             `bson:"runId" json:"runId"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	FinalizedAt     time.Time          `bson:"finalizedAt,omitempty" json:"finalizedAt,omitempty"`
}

// Winner returns the participant that won, or nil if the record is inconsistent
func (d *Draw) Winner() *DrawParticipant {
	for i := range d.Participants {
		if d.Participants[i].UserID == d.WinnerID && d.Participants[i].Rank == d.WinnerRank {
			return &d.Participants[i]
		}
	}
	return nil
}

// Settlement is the outcome of a payout attempt
type Settlement struct {
	Success   bool   `json:"success"`
	TxID      string `json:"txId,omitempty"`
	TxURL     string `json:"txUrl,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Ambiguous bool   `json:"ambiguous,omitempty"` // transfer may have landed despite the failure
}
