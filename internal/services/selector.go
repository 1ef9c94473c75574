package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
)

// DefaultWinWeights are the win chances, in percent, of ranks 1, 2 and 3
var DefaultWinWeights = []int{40, 35, 25}

// RandomSource yields uniform integers in [0, n)
type RandomSource interface {
	Intn(n int) int
}

// NewSeededSource returns a deterministic source, used by tests and replays
func NewSeededSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewCryptoSeededSource returns a math/rand source seeded from crypto/rand
func NewCryptoSeededSource() (*rand.Rand, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("failed to seed random source: %w", err)
	}
	return NewSeededSource(int64(binary.LittleEndian.Uint64(b[:]))), nil
}

// WeightedSelector picks one winner among the ranked participants.
// Rank i wins with probability weights[i-1]/100.
type WeightedSelector struct {
	weights []int
	total   int

	mu  sync.Mutex
	src RandomSource
}

// NewWeightedSelector validates the weight table. An error here is a configuration fault.
func NewWeightedSelector(weights []int, src RandomSource) (*WeightedSelector, error) {
	if len(weights) != models.ParticipantsPerDraw {
		return nil, fmt.Errorf("%w: need %d weights, got %d", ErrInvalidWeights, models.ParticipantsPerDraw, len(weights))
	}
	total := 0
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("%w: weight for rank %d must be positive, got %d", ErrInvalidWeights, i+1, w)
		}
		total += w
	}
	if total != 100 {
		return nil, fmt.Errorf("%w: weights must sum to 100, got %d", ErrInvalidWeights, total)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidWeights)
	}
	return &WeightedSelector{
		weights: append([]int(nil), weights...),
		total:   total,
		src:     src,
	}, nil
}

// Weights returns a copy of the table, rank 1 first
func (s *WeightedSelector) Weights() []int {
	return append([]int(nil), s.weights...)
}

// WinChance returns the weight of a 1-based rank
func (s *WeightedSelector) WinChance(rank int) int {
	if rank < 1 || rank > len(s.weights) {
		return 0
	}
	return s.weights[rank-1]
}

// SelectWinner returns the winning participant and its 1-based rank.
// participants must be ordered best first.
func (s *WeightedSelector) SelectWinner(participants []*models.TraderStanding) (*models.TraderStanding, int, error) {
	if len(participants) != len(s.weights) {
		return nil, 0, fmt.Errorf("%w: need %d participants, got %d", ErrInsufficientParticipants, len(s.weights), len(participants))
	}

	s.mu.Lock()
	r := s.src.Intn(s.total)
	s.mu.Unlock()

	idx := pickIndex(s.weights, r)
	return participants[idx], idx + 1, nil
}

// pickIndex walks the cumulative boundaries [0,w1), [w1,w1+w2), ...
func pickIndex(weights []int, r int) int {
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
