package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/alert"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/payoutrail"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid(n int) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(fmt.Sprintf("%024x", n))
	if err != nil {
		panic(err)
	}
	return id
}

func standing(n int, pnl float64) *models.TraderStanding {
	return &models.TraderStanding{
		ID:             oid(1000 + n),
		UserID:         oid(n),
		Wallet:         fmt.Sprintf("wallet-%d", n),
		WalletOriginal: fmt.Sprintf("WalletOriginal-%d", n),
		Name:           fmt.Sprintf("trader %d", n),
		SeasonID:       "2025-10-14",
		IsActive:       true,
		RealizedUsdPnl: pnl,
	}
}

// fakeDrawRepo is an in-memory ledger with the same uniqueness and one-way rules as Mongo
type fakeDrawRepo struct {
	mu          sync.Mutex
	byID        map[primitive.ObjectID]*models.Draw
	bySlot      map[string]primitive.ObjectID
	existsErr   error
	createErr   error
	finalizeErr error
	hideExists  bool // report false from Exists to simulate another instance racing on Create
}

func newFakeDrawRepo() *fakeDrawRepo {
	return &fakeDrawRepo{
		byID:   map[primitive.ObjectID]*models.Draw{},
		bySlot: map[string]primitive.ObjectID{},
	}
}

func (r *fakeDrawRepo) Exists(ctx context.Context, drawID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	if r.hideExists {
		return false, nil
	}
	_, ok := r.bySlot[drawID]
	return ok, nil
}

func (r *fakeDrawRepo) Create(ctx context.Context, draw *models.Draw) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	if _, ok := r.bySlot[draw.DrawID]; ok {
		return primitive.NilObjectID, fmt.Errorf("draw %s: %w", draw.DrawID, repositories.ErrDuplicateSlot)
	}
	stored := *draw
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = time.Now().UTC()
	r.byID[stored.ID] = &stored
	r.bySlot[stored.DrawID] = stored.ID
	return stored.ID, nil
}

func (r *fakeDrawRepo) Finalize(ctx context.Context, id primitive.ObjectID, status models.DrawStatus, settlement models.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	d, ok := r.byID[id]
	if !ok || d.Status != models.DrawStatusPending {
		return repositories.ErrNotPending
	}
	d.Status = status
	d.TxSignature = settlement.TxID
	d.TxURL = settlement.TxURL
	d.ErrorMessage = settlement.Reason
	d.FinalizedAt = time.Now().UTC()
	return nil
}

func (r *fakeDrawRepo) FindByDrawID(ctx context.Context, drawID string) (*models.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySlot[drawID]
	if !ok {
		return nil, repositories.ErrDrawNotFound
	}
	d := *r.byID[id]
	return &d, nil
}

func (r *fakeDrawRepo) ListRecent(ctx context.Context, seasonID string, statuses []models.DrawStatus, limit int) ([]*models.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Draw
	for _, d := range r.byID {
		if seasonID != "" && d.SeasonID != seasonID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, d.Status) {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrawTime.After(out[j].DrawTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeDrawRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeDrawRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *fakeDrawRepo) get(slot string) *models.Draw {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySlot[slot]
	if !ok {
		return nil
	}
	d := *r.byID[id]
	return &d
}

func containsStatus(statuses []models.DrawStatus, s models.DrawStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type fakeStandingRepo struct {
	rows      []*models.TraderStanding
	err       error
	panicMsg  string
	gotSeason string
	gotLimit  int
}

func (r *fakeStandingRepo) FindTopEligible(ctx context.Context, seasonID string, limit int) ([]*models.TraderStanding, error) {
	r.gotSeason = seasonID
	r.gotLimit = limit
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

type fakeOracle struct {
	pool decimal.Decimal
	err  error
}

func (o *fakeOracle) PoolSize(ctx context.Context) (decimal.Decimal, error) {
	return o.pool, o.err
}

// fakeRail records transfers. entered is signalled when a transfer starts; release blocks it.
type fakeRail struct {
	calls     atomic.Int32
	signature string
	err       error
	panicMsg  string
	entered   chan struct{}
	release   chan struct{}
	waitCtx   bool

	mu   sync.Mutex
	reqs []payoutrail.TransferRequest
}

func (r *fakeRail) Transfer(ctx context.Context, req payoutrail.TransferRequest) (string, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	if r.waitCtx {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	return r.signature, r.err
}

func (r *fakeRail) lastRequest(t *testing.T) payoutrail.TransferRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		t.Fatal("no transfer recorded")
	}
	return r.reqs[len(r.reqs)-1]
}

type fakeAlerts struct {
	mu   sync.Mutex
	sent []alert.Alert
}

func (a *fakeAlerts) Send(ctx context.Context, al alert.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, al)
	return nil
}

// stubSource returns a fixed sequence of values
type stubSource struct {
	values []int
	i      int
}

func (s *stubSource) Intn(n int) int {
	v := s.values[s.i%len(s.values)]
	s.i++
	if v >= n {
		panic(errors.New("stub value out of range"))
	}
	return v
}
