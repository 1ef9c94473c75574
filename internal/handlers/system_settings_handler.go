package handlers

import (
	"net/http"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/middleware"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// SystemSettingsHandler handles system settings-related HTTP requests
type SystemSettingsHandler struct {
	settingsService services.SystemSettingsService
}

// NewSystemSettingsHandler creates a new SystemSettingsHandler
func NewSystemSettingsHandler(settingsService services.SystemSettingsService) *SystemSettingsHandler {
	return &SystemSettingsHandler{
		settingsService: settingsService,
	}
}

// GetDrawSettings handles GET /admin/settings/draws
func (h *SystemSettingsHandler) GetDrawSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to get settings: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
}

// UpdateDrawSettings handles PUT /admin/settings/draws
func (h *SystemSettingsHandler) UpdateDrawSettings(c *gin.Context) {
	var req models.DrawsEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	settings, err := h.settingsService.SetDrawsEnabled(c.Request.Context(), *req.Enabled, middleware.OperatorFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update settings: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
}
