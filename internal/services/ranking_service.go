package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
)

var _ Ranker = (*RankingService)(nil)

// overFetch leaves room for rows the in-process filter drops
const overFetch = 2

// RankingService snapshots the top of a season leaderboard
type RankingService struct {
	standingRepo repositories.StandingRepository
	timeout      time.Duration
}

// NewRankingService creates a new RankingService
func NewRankingService(standingRepo repositories.StandingRepository, timeout time.Duration) *RankingService {
	return &RankingService{
		standingRepo: standingRepo,
		timeout:      timeout,
	}
}

// TopEligible returns exactly n eligible standings, best first
func (s *RankingService) TopEligible(ctx context.Context, seasonID utils.SeasonID, n int) ([]*models.TraderStanding, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.standingRepo.FindTopEligible(ctx, string(seasonID), n*overFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to read standings for season %s: %w", seasonID, err)
	}
	return RankEligible(rows, n)
}

// RankEligible drops ineligible rows, orders the rest by realized PnL
// (ties broken by user id, NaN last) and returns the first n.
func RankEligible(rows []*models.TraderStanding, n int) ([]*models.TraderStanding, error) {
	eligible := make([]*models.TraderStanding, 0, len(rows))
	for _, row := range rows {
		if row == nil || row.Disqualified || !row.IsActive {
			continue
		}
		eligible = append(eligible, row)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i].RealizedUsdPnl, eligible[j].RealizedUsdPnl
		// NaN sorts below every number
		if aNaN, bNaN := math.IsNaN(a), math.IsNaN(b); aNaN != bNaN {
			return bNaN
		} else if !aNaN && a != b {
			return a > b
		}
		return eligible[i].UserID.Hex() < eligible[j].UserID.Hex()
	})

	if len(eligible) < n {
		return nil, fmt.Errorf("%w: %d eligible, need %d", ErrInsufficientParticipants, len(eligible), n)
	}
	return eligible[:n], nil
}
