package models

import (
	"time"
)

// DrawWinner is the public view of the winning participant
type DrawWinner struct {
	ID     string `json:"id"`
	Wallet string `json:"wallet"`
	Name   string `json:"name"`
	Rank   int    `json:"rank"`
}

// DrawSummary is the public view of a completed draw
type DrawSummary struct {
	DrawID          string            `json:"drawId"`
	DrawTime        time.Time         `json:"drawTime"`
	Participants    []DrawParticipant `json:"participants"`
	Winner          DrawWinner        `json:"winner"`
	PrizeAmount     float64           `json:"prizeAmount"`
	TotalPoolAtDraw float64           `json:"totalPoolAtDraw"`
	TxSignature     string            `json:"txSignature"`
	TxURL           string            `json:"txUrl"`
}

// NewDrawSummary builds the public view of a record
func NewDrawSummary(d *Draw) DrawSummary {
	return DrawSummary{
		DrawID:       d.DrawID,
		DrawTime:     d.DrawTime,
		Participants: d.Participants,
		Winner: DrawWinner{
			ID:     d.WinnerID.Hex(),
			Wallet: d.WinnerWallet,
			Name:   d.WinnerName,
			Rank:   d.WinnerRank,
		},
		PrizeAmount:     d.PrizeAmount,
		TotalPoolAtDraw: d.TotalPoolAtDraw,
		TxSignature:     d.TxSignature,
		TxURL:           d.TxURL,
	}
}

// DrawsEnabledRequest is the body of PUT /admin/settings/draws
type DrawsEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
