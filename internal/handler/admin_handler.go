package handler

import (
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler serves operator-only ledger adjustments.
type AdminHandler struct {
	gamification service.GamificationService
}

func NewAdminHandler(gamification service.GamificationService) *AdminHandler {
	return &AdminHandler{gamification: gamification}
}

// AwardXP godoc
// @Summary Award XP to a user
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Param request body dto.XPDeltaRequest true "XP to add"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/users/{id}/xp [post]
func (h *AdminHandler) AwardXP(c *fiber.Ctx) error {
	var req dto.XPDeltaRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	userID := c.Params("id")
	if err := h.gamification.ApplyXPDelta(c.Context(), userID, req.Delta); err != nil {
		return err
	}
	logger.Get().Info("XP awarded manually",
		zap.String("userID", userID),
		zap.Int("delta", req.Delta),
		zap.String("adminID", middleware.UserIDFrom(c)))
	return c.JSON(dto.MessageResponse{Message: "XP awarded"})
}
