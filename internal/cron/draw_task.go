package cronrunner

import (
	"context"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/services"
	"golang.org/x/exp/slog"
)

// DrawSchedule fires at minute zero of every even UTC hour
const DrawSchedule = "0 */2 * * *"

// DefaultSettingsTimeout bounds the read of the scheduled-draw switch
const DefaultSettingsTimeout = 5 * time.Second

// DrawSwitch reports whether scheduled draws are enabled
type DrawSwitch interface {
	ScheduledDrawsEnabled(ctx context.Context) bool
}

// DrawTask runs the scheduled draw. Failures are logged, never returned.
type DrawTask struct {
	draws    services.DrawService
	settings DrawSwitch

	SettingsTimeout time.Duration
}

// NewDrawTask creates a new DrawTask
func NewDrawTask(draws services.DrawService, settings DrawSwitch) *DrawTask {
	return &DrawTask{draws: draws, settings: settings, SettingsTimeout: DefaultSettingsTimeout}
}

// Run is the Job registered with the runner
func (t *DrawTask) Run(ctx context.Context, now time.Time) {
	if t.settings != nil && !t.scheduledDrawsEnabled(ctx) {
		slog.Info("Scheduled draws disabled, skipping tick", "time", now.UTC())
		return
	}

	result := t.draws.RunDraw(ctx, now, models.DrawTriggerScheduled)
	attrs := []any{"drawId", result.DrawID, "runId", result.RunID, "outcome", result.Outcome}
	switch result.Outcome {
	case services.OutcomeCompleted:
		slog.Info("Scheduled draw completed", attrs...)
	case services.OutcomeAlreadyDrawn, services.OutcomeInProgress, services.OutcomeInsufficient, services.OutcomeSlotClosed:
		slog.Info("Scheduled draw skipped", append(attrs, "reason", errText(result.Err))...)
	case services.OutcomeLedgerFailure:
		// already logged at critical level and alerted
		slog.Error("Scheduled draw left an unfinalized record", append(attrs, "error", errText(result.Err))...)
	default:
		slog.Error("Scheduled draw failed", append(attrs, "error", errText(result.Err))...)
	}
}

func (t *DrawTask) scheduledDrawsEnabled(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, t.SettingsTimeout)
	defer cancel()
	return t.settings.ScheduledDrawsEnabled(ctx)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
