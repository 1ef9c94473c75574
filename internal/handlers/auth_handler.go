package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// AuthHandler handles operator token requests
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueToken handles POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}

	resp, err := h.authService.IssueToken(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOperatorKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid operator key"})
			return
		}
		slog.Error("Failed to issue operator token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}
