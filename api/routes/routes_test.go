package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/config"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/handlers"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/services"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const operatorKey = "correct horse battery staple"

var fixedNow = time.Date(2025, 10, 14, 14, 0, 5, 0, time.UTC)

type stubDrawService struct {
	mu sync.Mutex

	result      services.DrawResult
	draws       []*models.Draw
	listErr     error
	getErr      error
	runCalls    int
	lastTrigger models.DrawTrigger
	lastSeason  string
	lastStatus  []models.DrawStatus
	lastLimit   int
}

func (s *stubDrawService) RunDraw(ctx context.Context, now time.Time, trigger models.DrawTrigger) services.DrawResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runCalls++
	s.lastTrigger = trigger
	return s.result
}

func (s *stubDrawService) GetDraw(ctx context.Context, drawID string) (*models.Draw, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, d := range s.draws {
		if d.DrawID == drawID {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", repositories.ErrDrawNotFound, drawID)
}

func (s *stubDrawService) ListDraws(ctx context.Context, seasonID string, statuses []models.DrawStatus, limit int) ([]*models.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeason, s.lastStatus, s.lastLimit = seasonID, statuses, limit
	return s.draws, s.listErr
}

type stubSettings struct {
	settings  models.SystemSettings
	updatedBy string
}

func (s *stubSettings) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	cp := s.settings
	return &cp, nil
}

func (s *stubSettings) SetDrawsEnabled(ctx context.Context, enabled bool, updatedBy string) (*models.SystemSettings, error) {
	s.settings.DrawsEnabled = enabled
	s.settings.UpdatedBy = updatedBy
	s.updatedBy = updatedBy
	return s.GetSettings(ctx)
}

func (s *stubSettings) ScheduledDrawsEnabled(ctx context.Context) bool {
	return s.settings.DrawsEnabled
}

type testServer struct {
	router   *gin.Engine
	draws    *stubDrawService
	settings *stubSettings
	tokens   *jwt.OperatorTokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.AllowedHosts = []string{"https://app.example.com"}

	tokens := jwt.NewOperatorTokenService("test-secret", time.Hour, "leaderboard-draw")
	draws := &stubDrawService{}
	settings := &stubSettings{}

	router := SetupRouter(cfg, HandlerDependencies{
		AuthHandler:           handlers.NewAuthHandler(services.NewAuthService(string(hash), tokens)),
		DrawHandler:           handlers.NewDrawHandler(draws, func() time.Time { return fixedNow }),
		SystemSettingsHandler: handlers.NewSystemSettingsHandler(settings),
		Tokens:                tokens,
	})
	return &testServer{router: router, draws: draws, settings: settings, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	tok, err := s.tokens.Issue("ops-alice", time.Now())
	require.NoError(t, err)
	return tok
}

func completedDraw(slot string) *models.Draw {
	return &models.Draw{
		DrawID:          slot,
		SeasonID:        slot[:10],
		WinnerWallet:    "Wallet111",
		WinnerName:      "alice",
		WinnerRank:      2,
		PrizeAmount:     1.5,
		TotalPoolAtDraw: 15,
		TxSignature:     "5igSig",
		TxURL:           "https://solscan.io/tx/5igSig",
		Status:          models.DrawStatusCompleted,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/auth/token", models.TokenRequest{OperatorKey: operatorKey, Subject: "ops-alice"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 3600, data["expiresIn"])

	claims, err := s.tokens.Parse(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ops-alice", claims.Subject)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/token", models.TokenRequest{OperatorKey: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/token", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDrawsIsPublicAndDefaultsToCurrentSeason(t *testing.T) {
	s := newTestServer(t)
	s.draws.draws = []*models.Draw{completedDraw("2025-10-14-12")}

	w, body := s.do(t, http.MethodGet, "/api/v1/draws", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-10-14", data["seasonId"])
	assert.Equal(t, "2025-10-14T16:00:00Z", data["nextDrawAt"])
	draws := data["draws"].([]any)
	require.Len(t, draws, 1)
	first := draws[0].(map[string]any)
	assert.Equal(t, "2025-10-14-12", first["drawId"])
	assert.Equal(t, "alice", first["winner"].(map[string]any)["name"])

	assert.Equal(t, "2025-10-14", s.draws.lastSeason)
	assert.Equal(t, []models.DrawStatus{models.DrawStatusCompleted}, s.draws.lastStatus)
	assert.Equal(t, 20, s.draws.lastLimit)
}

func TestGetDrawsQueryValidation(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/draws?seasonId=14-10-2025", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/draws?limit=-3", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/draws?seasonId=2025-10-13&limit=500", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-10-13", s.draws.lastSeason)
	assert.Equal(t, 100, s.draws.lastLimit)

	s.draws.listErr = errors.New("mongo down")
	w, _ = s.do(t, http.MethodGet, "/api/v1/draws", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	expired, err := s.tokens.Issue("ops-alice", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/draws/trigger"},
		{http.MethodGet, "/api/v1/admin/draws"},
		{http.MethodGet, "/api/v1/admin/draws/2025-10-14-14"},
		{http.MethodGet, "/api/v1/admin/settings/draws"},
		{http.MethodPut, "/api/v1/admin/settings/draws"},
	} {
		w, _ := s.do(t, tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s without token", tc.method, tc.path)

		w, _ = s.do(t, tc.method, tc.path, nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s with garbage token", tc.method, tc.path)

		w, body := s.do(t, tc.method, tc.path, nil, expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Token has expired", body["error"])
	}
	assert.Zero(t, s.draws.runCalls)
}

func TestTriggerDrawSuccess(t *testing.T) {
	s := newTestServer(t)
	draw := completedDraw("2025-10-14-14")
	s.draws.result = services.DrawResult{Outcome: services.OutcomeCompleted, DrawID: "2025-10-14-14", Draw: draw}

	w, body := s.do(t, http.MethodPost, "/api/v1/draws/trigger", nil, s.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-10-14-14", data["drawId"])
	assert.Equal(t, "5igSig", data["txSignature"])
	assert.Equal(t, "https://solscan.io/tx/5igSig", data["txUrl"])
	assert.Equal(t, models.DrawTriggerManual, s.draws.lastTrigger)
}

func TestTriggerDrawFailureStatuses(t *testing.T) {
	tests := []struct {
		outcome services.Outcome
		err     error
		status  int
	}{
		{services.OutcomeInProgress, services.ErrDrawInProgress, http.StatusConflict},
		{services.OutcomeAlreadyDrawn, services.ErrAlreadyDrawn, http.StatusConflict},
		{services.OutcomeInsufficient, services.ErrInsufficientParticipants, http.StatusBadRequest},
		{services.OutcomeSlotClosed, services.ErrSlotClosed, http.StatusBadRequest},
		{services.OutcomeSettlementFailed, errors.New("payout rejected"), http.StatusBadGateway},
		{services.OutcomeLedgerFailure, errors.New("finalize failed"), http.StatusInternalServerError},
		{services.OutcomeError, nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			s := newTestServer(t)
			s.draws.result = services.DrawResult{Outcome: tt.outcome, DrawID: utils.DrawSlot("2025-10-14-14"), Err: tt.err}

			w, body := s.do(t, http.MethodPost, "/api/v1/draws/trigger", nil, s.token(t))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, string(tt.outcome), body["outcome"])
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), body["error"])
			} else {
				assert.Equal(t, "Failed to perform draw", body["error"])
			}
			assert.Equal(t, "2025-10-14-14", body["data"].(map[string]any)["drawId"])
		})
	}
}

func TestAdminDraws(t *testing.T) {
	s := newTestServer(t)
	pending := completedDraw("2025-10-14-12")
	pending.Status = models.DrawStatusPending
	s.draws.draws = []*models.Draw{pending}
	tok := s.token(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/admin/draws?status=pending,failed&limit=5", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"].(map[string]any)["draws"], 1)
	assert.Equal(t, []models.DrawStatus{models.DrawStatusPending, models.DrawStatusFailed}, s.draws.lastStatus)
	assert.Equal(t, "", s.draws.lastSeason)
	assert.Equal(t, 5, s.draws.lastLimit)

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/draws?status=lost", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/v1/admin/draws/2025-10-14-12", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", body["data"].(map[string]any)["status"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/draws/2025-10-14-10", nil, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/draws/2025-10-14-13", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.draws.getErr = errors.New("mongo down")
	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/draws/2025-10-14-12", nil, tok)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDrawSettingsToggle(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/admin/settings/draws", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["data"].(map[string]any)["drawsEnabled"])

	w, body = s.do(t, http.MethodPut, "/api/v1/admin/settings/draws", map[string]bool{"enabled": true}, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["data"].(map[string]any)["drawsEnabled"])
	assert.Equal(t, "ops-alice", s.settings.updatedBy)

	w, _ = s.do(t, http.MethodPut, "/api/v1/admin/settings/draws", map[string]string{}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/draws", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
