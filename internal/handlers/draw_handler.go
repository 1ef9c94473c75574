package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/middleware"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/services"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

const (
	defaultDrawLimit = 20
	maxDrawLimit     = 100
)

// DrawHandler handles draw-related HTTP requests
type DrawHandler struct {
	drawService services.DrawService
	clock       func() time.Time
}

// NewDrawHandler creates a new DrawHandler. A nil clock means time.Now.
func NewDrawHandler(drawService services.DrawService, clock func() time.Time) *DrawHandler {
	if clock == nil {
		clock = time.Now
	}
	return &DrawHandler{
		drawService: drawService,
		clock:       clock,
	}
}

// GetDraws handles GET /draws
func (h *DrawHandler) GetDraws(c *gin.Context) {
	now := h.clock()
	seasonID := utils.CurrentSeasonID(now)
	if raw := c.Query("seasonId"); raw != "" {
		parsed, err := utils.ParseSeasonID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		seasonID = parsed
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	draws, err := h.drawService.ListDraws(c.Request.Context(), string(seasonID), []models.DrawStatus{models.DrawStatusCompleted}, limit)
	if err != nil {
		slog.Error("Failed to fetch draws", "error", err, "seasonId", seasonID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch draws"})
		return
	}

	summaries := make([]models.DrawSummary, 0, len(draws))
	for _, d := range draws {
		summaries = append(summaries, models.NewDrawSummary(d))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"draws":      summaries,
			"seasonId":   seasonID,
			"nextDrawAt": utils.NextSlotStart(now),
		},
	})
}

// TriggerDraw handles POST /draws/trigger
func (h *DrawHandler) TriggerDraw(c *gin.Context) {
	slog.Info("Manual draw triggered", "operator", middleware.OperatorFromContext(c))

	result := h.drawService.RunDraw(c.Request.Context(), h.clock(), models.DrawTriggerManual)
	if result.Success() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Prize draw completed successfully",
			"data": gin.H{
				"drawId":      result.DrawID,
				"txSignature": result.Draw.TxSignature,
				"txUrl":       result.Draw.TxURL,
			},
		})
		return
	}

	body := gin.H{
		"success": false,
		"error":   triggerErrorText(result),
		"outcome": result.Outcome,
	}
	if result.DrawID != "" {
		body["data"] = gin.H{"drawId": result.DrawID}
	}
	c.JSON(triggerStatus(result.Outcome), body)
}

// ListAdminDraws handles GET /admin/draws, including pending and failed records
func (h *DrawHandler) ListAdminDraws(c *gin.Context) {
	var seasonID string
	if raw := c.Query("seasonId"); raw != "" {
		parsed, err := utils.ParseSeasonID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		seasonID = string(parsed)
	}

	var statuses []models.DrawStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.DrawStatus(strings.TrimSpace(s))
			switch status {
			case models.DrawStatusPending, models.DrawStatusCompleted, models.DrawStatusFailed:
				statuses = append(statuses, status)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid status: " + string(status)})
				return
			}
		}
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	draws, err := h.drawService.ListDraws(c.Request.Context(), seasonID, statuses, limit)
	if err != nil {
		slog.Error("Failed to fetch admin draws", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch draws"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"draws": draws}})
}

// GetAdminDraw handles GET /admin/draws/:drawId
func (h *DrawHandler) GetAdminDraw(c *gin.Context) {
	drawID := c.Param("drawId")
	if _, _, err := utils.ParseSlot(drawID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	draw, err := h.drawService.GetDraw(c.Request.Context(), drawID)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Draw not found"})
			return
		}
		slog.Error("Failed to fetch draw", "error", err, "drawId", drawID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch draw"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": draw})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultDrawLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxDrawLimit {
		limit = maxDrawLimit
	}
	return limit, nil
}

func triggerStatus(outcome services.Outcome) int {
	switch outcome {
	case services.OutcomeInProgress, services.OutcomeAlreadyDrawn:
		return http.StatusConflict
	case services.OutcomeInsufficient, services.OutcomeSlotClosed:
		return http.StatusBadRequest
	case services.OutcomeSettlementFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func triggerErrorText(result services.DrawResult) string {
	if result.Err != nil {
		return result.Err.Error()
	}
	return "Failed to perform draw"
}
