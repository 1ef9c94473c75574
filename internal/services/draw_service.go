package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/alert"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/slotlock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// Outcome classifies what a draw attempt did
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeSettlementFailed Outcome = "settlement_failed"
	OutcomeAlreadyDrawn     Outcome = "already_drawn"
	OutcomeInProgress       Outcome = "in_progress"
	OutcomeInsufficient     Outcome = "insufficient_participants"
	OutcomeSlotClosed       Outcome = "slot_closed"
	OutcomeError            Outcome = "error"
	// OutcomeLedgerFailure means the record could not be finalized; if the
	// payout went through, funds moved without a terminal ledger entry.
	OutcomeLedgerFailure Outcome = "ledger_failure"
)

// DrawResult is reported to the manual caller and logged for scheduled runs
type DrawResult struct {
	Outcome Outcome
	DrawID  utils.DrawSlot
	RunID   string
	Draw    *models.Draw // nil unless a record was created
	Err     error
}

// Success reports whether the draw completed and paid out
func (r DrawResult) Success() bool {
	return r.Outcome == OutcomeCompleted
}

// runGuard is the single-flight state of the scheduler: Idle or Running
type runGuard struct {
	running atomic.Bool
}

// TryEnterRunning moves Idle to Running. It returns false if a draw is already running.
func (g *runGuard) TryEnterRunning() bool {
	return g.running.CompareAndSwap(false, true)
}

// Leave returns to Idle
func (g *runGuard) Leave() {
	g.running.Store(false)
}

// DrawServiceConfig holds the timeouts and links used by a draw run
type DrawServiceConfig struct {
	OracleTimeout time.Duration
	LedgerTimeout time.Duration
	LockTTL       time.Duration
}

// DrawServiceImpl runs the draw pipeline: snapshot, select, create, pay, finalize
type DrawServiceImpl struct {
	drawRepo repositories.DrawRepository
	ranking  Ranker
	selector *WeightedSelector
	oracle   PoolOracle
	payout   *PayoutService
	locker   slotlock.Locker
	alerts   alert.Gateway
	cfg      DrawServiceConfig

	guard runGuard
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(
	drawRepo repositories.DrawRepository,
	ranking Ranker,
	selector *WeightedSelector,
	oracle PoolOracle,
	payout *PayoutService,
	locker slotlock.Locker,
	alerts alert.Gateway,
	cfg DrawServiceConfig,
) *DrawServiceImpl {
	if locker == nil {
		locker = slotlock.LocalLocker{}
	}
	if alerts == nil {
		alerts = alert.LogGateway{}
	}
	return &DrawServiceImpl{
		drawRepo: drawRepo,
		ranking:  ranking,
		selector: selector,
		oracle:   oracle,
		payout:   payout,
		locker:   locker,
		alerts:   alerts,
		cfg:      cfg,
	}
}

// pendingDraw is a created record together with the pool it was priced on
type pendingDraw struct {
	record *models.Draw
	pool   decimal.Decimal
}

// RunDraw runs the draw for the slot containing now
func (s *DrawServiceImpl) RunDraw(ctx context.Context, now time.Time, trigger models.DrawTrigger) DrawResult {
	slot, ok := utils.CurrentSlot(now)
	if !ok {
		return DrawResult{Outcome: OutcomeSlotClosed, Err: ErrSlotClosed}
	}

	if !s.guard.TryEnterRunning() {
		slog.Info("Draw already in progress, ignoring trigger", "drawId", slot, "trigger", trigger)
		return DrawResult{Outcome: OutcomeInProgress, DrawID: slot, Err: ErrDrawInProgress}
	}
	defer s.guard.Leave()

	runID := uuid.NewString()
	log := slog.With("drawId", slot, "trigger", trigger, "runId", runID)
	log.Info("Draw run started")

	pending, result := s.claim(ctx, slot, trigger, runID, now, log)
	if pending == nil {
		result.DrawID = slot
		result.RunID = runID
		return result
	}

	// The record exists from here on; a cancelled caller must not leave it pending
	result = s.settle(context.WithoutCancel(ctx), pending, log)
	result.DrawID = slot
	result.RunID = runID
	return result
}

// claim takes the slot: it snapshots the leaderboard, selects the winner,
// prices the prize and writes the pending record. A nil pendingDraw means
// nothing was written and result says why.
func (s *DrawServiceImpl) claim(ctx context.Context, slot utils.DrawSlot, trigger models.DrawTrigger, runID string, now time.Time, log *slog.Logger) (pending *pendingDraw, result DrawResult) {
	// Nothing is written before Create, so a panic here leaves the slot absent
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic before draw record was created", "panic", r)
			pending = nil
			result = DrawResult{Outcome: OutcomeError, Err: fmt.Errorf("panic during draw preparation: %v", r)}
		}
	}()

	release, err := s.locker.Acquire(ctx, string(slot), s.cfg.LockTTL)
	if errors.Is(err, slotlock.ErrNotAcquired) {
		log.Info("Slot locked by another instance")
		return nil, DrawResult{Outcome: OutcomeInProgress, Err: ErrDrawInProgress}
	}
	if err != nil {
		log.Error("Failed to acquire slot lock", "error", err)
		return nil, DrawResult{Outcome: OutcomeError, Err: err}
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), s.cfg.LedgerTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			log.Warn("Failed to release slot lock", "error", err)
		}
	}()

	// 1. Idempotency check
	existsCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	exists, err := s.drawRepo.Exists(existsCtx, string(slot))
	cancel()
	if err != nil {
		log.Error("Failed to check for existing draw", "error", err)
		return nil, DrawResult{Outcome: OutcomeError, Err: fmt.Errorf("failed to check ledger: %w", err)}
	}
	if exists {
		log.Info("Draw already executed for slot")
		return nil, DrawResult{Outcome: OutcomeAlreadyDrawn, Err: ErrAlreadyDrawn}
	}

	// 2. Ranking snapshot
	standings, err := s.ranking.TopEligible(ctx, slot.Season(), models.ParticipantsPerDraw)
	if errors.Is(err, ErrInsufficientParticipants) {
		log.Info("Not enough eligible traders, skipping slot", "reason", err.Error())
		return nil, DrawResult{Outcome: OutcomeInsufficient, Err: err}
	}
	if err != nil {
		log.Error("Failed to snapshot ranking", "error", err)
		return nil, DrawResult{Outcome: OutcomeError, Err: err}
	}

	// 3. Weighted selection
	winner, rank, err := s.selector.SelectWinner(standings)
	if err != nil {
		log.Error("Failed to select winner", "error", err)
		return nil, DrawResult{Outcome: OutcomeError, Err: err}
	}

	// 4. Pool snapshot
	oracleCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	pool, err := s.oracle.PoolSize(oracleCtx)
	cancel()
	if err != nil {
		log.Error("Failed to read rewards pool", "error", err)
		return nil, DrawResult{Outcome: OutcomeError, Err: fmt.Errorf("failed to read rewards pool: %w", err)}
	}
	prize, lamports := s.payout.PrizeFor(pool)
	poolSOL, _ := pool.Float64()
	prizeSOL, _ := prize.Float64()

	// 5. Pending record
	record := &models.Draw{
		DrawID:          string(slot),
		SeasonID:        string(slot.Season()),
		DrawTime:        now.UTC(),
		Participants:    s.snapshotParticipants(standings),
		WinnerID:        winner.UserID,
		WinnerWallet:    winner.PayoutWallet(),
		WinnerName:      winner.Name,
		WinnerRank:      rank,
		PrizeAmount:     prizeSOL,
		PrizeLamports:   lamports,
		TotalPoolAtDraw: poolSOL,
		Status:          models.DrawStatusPending,
		Trigger:         trigger,
		RunID:           runID,
	}

	createCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	id, err := s.drawRepo.Create(createCtx, record)
	cancel()
	if errors.Is(err, repositories.ErrDuplicateSlot) {
		log.Info("Slot claimed concurrently by another run")
		return nil, DrawResult{Outcome: OutcomeAlreadyDrawn, Err: ErrAlreadyDrawn}
	}
	if err != nil {
		log.Error("Failed to create draw record", "error", err)
		return nil, DrawResult{Outcome: OutcomeError, Err: fmt.Errorf("failed to create draw record: %w", err)}
	}
	record.ID = id

	log.Info("Draw record created", "winnerRank", rank, "winner", utils.MaskWallet(record.WinnerWallet), "poolSol", pool.String(), "prizeSol", prize.String())
	return &pendingDraw{record: record, pool: pool}, DrawResult{}
}

// snapshotParticipants copies the contenders into the record, rank 1 first
func (s *DrawServiceImpl) snapshotParticipants(standings []*models.TraderStanding) []models.DrawParticipant {
	participants := make([]models.DrawParticipant, 0, len(standings))
	for i, st := range standings {
		participants = append(participants, models.DrawParticipant{
			UserID:         st.UserID,
			Wallet:         st.Wallet,
			WalletOriginal: st.WalletOriginal,
			Name:           st.Name,
			Avatar:         st.Avatar,
			Rank:           i + 1,
			RealizedPnl:    st.RealizedUsdPnl,
			WinChance:      s.selector.WinChance(i + 1),
		})
	}
	return participants
}

// settle pays the winner and finalizes the record. A panic is recovered into a failed record.
func (s *DrawServiceImpl) settle(ctx context.Context, pending *pendingDraw, log *slog.Logger) (result DrawResult) {
	draw := pending.record
	var settlement models.Settlement
	payoutAttempted := false

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic during draw settlement", "panic", r)
			if !settlement.Success {
				settlement = models.Settlement{Reason: fmt.Sprintf("panic during draw execution: %v", r)}
				if payoutAttempted {
					settlement.Ambiguous = true
					settlement.Reason += "; " + ambiguousSuffix
				}
			}
		}
		result = s.finalize(draw, settlement, log)
	}()

	winner := draw.Winner()
	if winner == nil {
		settlement = models.Settlement{Reason: "winner is not among the recorded participants"}
		return
	}

	payoutAttempted = true
	settlement = s.payout.Execute(ctx, draw.DrawID, draw.WinnerWallet, pending.pool)
	return
}

// finalize writes the terminal status on a detached context
func (s *DrawServiceImpl) finalize(draw *models.Draw, settlement models.Settlement, log *slog.Logger) DrawResult {
	status := models.DrawStatusFailed
	if settlement.Success {
		status = models.DrawStatusCompleted
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LedgerTimeout)
	err := s.drawRepo.Finalize(ctx, draw.ID, status, settlement)
	cancel()

	if err != nil {
		return s.ledgerFailure(draw, status, settlement, err, log)
	}

	now := time.Now().UTC()
	draw.Status = status
	draw.TxSignature = settlement.TxID
	draw.TxURL = settlement.TxURL
	draw.ErrorMessage = settlement.Reason
	draw.UpdatedAt = now
	draw.FinalizedAt = now

	if settlement.Success {
		log.Info("Draw completed", "txSignature", settlement.TxID, "prizeSol", draw.PrizeAmount)
		return DrawResult{Outcome: OutcomeCompleted, Draw: draw}
	}

	if settlement.Ambiguous {
		log.Error("Draw settlement outcome unknown", "reason", settlement.Reason)
	} else {
		log.Warn("Draw settlement failed", "reason", settlement.Reason)
	}
	return DrawResult{Outcome: OutcomeSettlementFailed, Draw: draw, Err: errors.New(settlement.Reason)}
}

// ledgerFailure handles a record left pending. After a payout this means funds moved without a terminal entry.
func (s *DrawServiceImpl) ledgerFailure(draw *models.Draw, status models.DrawStatus, settlement models.Settlement, err error, log *slog.Logger) DrawResult {
	severity := "error"
	level := slog.LevelError
	msg := "Failed to finalize draw record; record left pending"
	if settlement.Success || settlement.Ambiguous {
		severity = "critical"
		level = LevelCritical
		msg = "CRITICAL: payout may have been sent but draw record could not be finalized"
	}
	log.Log(context.Background(), level, msg,
		"error", err,
		"recordId", draw.ID.Hex(),
		"intendedStatus", status,
		"txSignature", settlement.TxID,
		"reason", settlement.Reason,
	)

	alertCtx, cancel := context.WithTimeout(context.Background(), s.cfg.LedgerTimeout)
	defer cancel()
	if alertErr := s.alerts.Send(alertCtx, alert.Alert{
		Severity: severity,
		Title:    "Draw ledger finalize failed",
		Message:  msg,
		Fields: map[string]string{
			"drawId":         draw.DrawID,
			"recordId":       draw.ID.Hex(),
			"intendedStatus": string(status),
			"txSignature":    settlement.TxID,
			"winnerWallet":   draw.WinnerWallet,
			"prizeLamports":  fmt.Sprintf("%d", draw.PrizeLamports),
			"error":          err.Error(),
		},
	}); alertErr != nil {
		log.Error("Failed to send alert", "error", alertErr)
	}

	draw.TxSignature = settlement.TxID
	draw.TxURL = settlement.TxURL
	draw.ErrorMessage = settlement.Reason
	return DrawResult{Outcome: OutcomeLedgerFailure, Draw: draw, Err: fmt.Errorf("failed to finalize draw record: %w", err)}
}

// GetDraw returns the record of one slot
func (s *DrawServiceImpl) GetDraw(ctx context.Context, drawID string) (*models.Draw, error) {
	if _, _, err := utils.ParseSlot(drawID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	defer cancel()
	return s.drawRepo.FindByDrawID(ctx, drawID)
}

// ListDraws returns ledger records newest first
func (s *DrawServiceImpl) ListDraws(ctx context.Context, seasonID string, statuses []models.DrawStatus, limit int) ([]*models.Draw, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	defer cancel()
	draws, err := s.drawRepo.ListRecent(ctx, seasonID, statuses, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	return draws, nil
}
