package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TraderStanding is one trader's performance for a season, joined with the
// profile fields the draw needs. It is written by the stats pipeline and only read here.
type TraderStanding struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Wallet         string             `bson:"wallet" json:"wallet"`
	SeasonID       string             `bson:"seasonId" json:"seasonId"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	Disqualified   bool               `bson:"soldPrint" json:"disqualified"` // only an explicit true disqualifies
	RealizedUsdPnl float64            `bson:"realizedUsdPnl" json:"realizedUsdPnl"`

	// joined from users
	WalletOriginal string `bson:"walletOriginal" json:"walletOriginal"`
	Name           string `bson:"name" json:"name"`
	Avatar         string `bson:"avatar" json:"avatar"`
}

// PayoutWallet returns the address the prize is sent to
func (s *TraderStanding) PayoutWallet() string {
	if s.WalletOriginal != "" {
		return s.WalletOriginal
	}
	return s.Wallet
}
