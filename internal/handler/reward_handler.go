package handler

import (
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RewardHandler struct {
	service service.RewardService
}

func NewRewardHandler(service service.RewardService) *RewardHandler {
	return &RewardHandler{service: service}
}

// ListRewards godoc
// @Summary List active rewards
// @Description Signed-in callers also see whether they claimed and can claim each reward
// @Tags rewards
// @Produce json
// @Success 200 {array} dto.RewardResponse
// @Router /rewards [get]
func (h *RewardHandler) ListRewards(c *fiber.Ctx) error {
	rewards, err := h.service.List(c.Context(), middleware.UserIDFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(rewards)
}

// ClaimReward godoc
// @Summary Claim a reward
// @Tags rewards
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} dto.RewardClaimResponse
// @Failure 403 {object} middleware.ErrorResponse "Not eligible or unavailable"
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Already claimed"
// @Router /rewards/{id}/claim [post]
func (h *RewardHandler) ClaimReward(c *fiber.Ctx) error {
	userID := middleware.UserIDFrom(c)
	resp, err := h.service.Claim(c.Context(), c.Params("id"), userID)
	if err != nil {
		return err
	}
	logger.Get().Info("Reward claimed", zap.String("rewardID", resp.RewardID), zap.String("userID", userID))
	return c.JSON(resp)
}

// GrantReward godoc
// @Summary Grant a reward to a user
// @Description Admin only. Bypasses eligibility thresholds and the claim limit.
// @Tags rewards
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Reward ID"
// @Param request body dto.GrantRewardRequest true "Recipient"
// @Success 200 {object} dto.RewardClaimResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Already claimed"
// @Router /rewards/{id}/grant [post]
func (h *RewardHandler) GrantReward(c *fiber.Ctx) error {
	var req dto.GrantRewardRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	resp, err := h.service.Grant(c.Context(), c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	logger.Get().Info("Reward granted",
		zap.String("rewardID", resp.RewardID),
		zap.String("userID", resp.UserID),
		zap.String("grantedBy", middleware.UserIDFrom(c)))
	return c.JSON(resp)
}
