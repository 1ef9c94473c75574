package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/payoutrail"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/rewards"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

// ambiguousSuffix is appended to the failure reason when the transfer may have landed
const ambiguousSuffix = "transfer may have been broadcast; reconcile manually"

// PayoutService sends the prize to the winner. It makes exactly one attempt per draw.
type PayoutService struct {
	rail         PayoutRail
	fraction     decimal.Decimal
	timeout      time.Duration
	explorerBase string
}

// NewPayoutService creates a new PayoutService. fraction is the share of the pool paid per draw.
func NewPayoutService(rail PayoutRail, fraction float64, timeout time.Duration, explorerBase string) *PayoutService {
	return &PayoutService{
		rail:         rail,
		fraction:     decimal.NewFromFloat(fraction),
		timeout:      timeout,
		explorerBase: explorerBase,
	}
}

// PrizeFor returns the prize for a pool, in SOL and in lamports, truncated to whole lamports
func (p *PayoutService) PrizeFor(pool decimal.Decimal) (decimal.Decimal, int64) {
	lamports := rewards.SOLToLamports(pool.Mul(p.fraction))
	if lamports < 0 {
		lamports = 0
	}
	return rewards.LamportsToSOL(lamports), lamports
}

// Execute pays the prize for pool to wallet. reference is the draw slot and
// is forwarded to the rail so a replay can be rejected there.
func (p *PayoutService) Execute(ctx context.Context, reference, wallet string, pool decimal.Decimal) models.Settlement {
	prize, lamports := p.PrizeFor(pool)
	if lamports <= 0 {
		return models.Settlement{Reason: fmt.Sprintf("prize amount is zero (pool %s SOL)", pool.String())}
	}
	if wallet == "" {
		return models.Settlement{Reason: "winner has no payout wallet"}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	slog.Info("Submitting payout", "drawId", reference, "wallet", utils.MaskWallet(wallet), "prizeSol", prize.String(), "lamports", lamports)
	signature, err := p.rail.Transfer(ctx, payoutrail.TransferRequest{
		Destination: wallet,
		Lamports:    lamports,
		Reference:   reference,
	})
	if err != nil {
		settlement := models.Settlement{Reason: fmt.Sprintf("payout failed: %v", err)}
		if isAmbiguous(ctx, err) {
			settlement.Ambiguous = true
			settlement.Reason += "; " + ambiguousSuffix
		}
		return settlement
	}
	if signature == "" {
		return models.Settlement{
			Reason:    "payout failed: rail returned no transaction id; " + ambiguousSuffix,
			Ambiguous: true,
		}
	}

	return models.Settlement{
		Success: true,
		TxID:    signature,
		TxURL:   utils.TxURL(p.explorerBase, signature),
	}
}

// isAmbiguous reports whether the rail may have broadcast the transfer despite err
func isAmbiguous(ctx context.Context, err error) bool {
	return errors.Is(err, payoutrail.ErrOutcomeUnknown) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded)
}
