package cronrunner

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

// Job is one firing of a recurring task. now is the clock reading at the firing.
type Job func(ctx context.Context, now time.Time)

type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
	clock   func() time.Time

	mu   sync.Mutex
	jobs []Job
}

// New creates a runner that evaluates schedules in UTC. A nil clock means time.Now.
func New(baseCtx context.Context, clock func() time.Time) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if clock == nil {
		clock = time.Now
	}
	logger := slogAdapter{}
	return &Runner{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		baseCtx: baseCtx,
		clock:   clock,
	}
}

// Add registers job under a standard five-field cron spec
func (r *Runner) Add(spec string, job Job) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() {
		job(r.baseCtx, r.clock())
	})
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	return id, nil
}

// Tick runs every registered job once, synchronously, at the current clock reading
func (r *Runner) Tick(ctx context.Context) {
	r.mu.Lock()
	jobs := append([]Job(nil), r.jobs...)
	r.mu.Unlock()
	now := r.clock()
	for _, job := range jobs {
		job(ctx, now)
	}
}

// Next returns the next scheduled firing of any job
func (r *Runner) Next() time.Time {
	var next time.Time
	for _, e := range r.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

func (r *Runner) Start() {
	slog.Info("cron started")
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	slog.Info("cron stopped")
}

// Run starts the runner and blocks until ctx is done, then waits for running jobs
func (r *Runner) Run(ctx context.Context) error {
	r.Start()
	<-ctx.Done()
	r.Stop()
	return nil
}

// slogAdapter routes cron's own logs through slog
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
