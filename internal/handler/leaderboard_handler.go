package handler

import (
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LeaderboardHandler struct {
	service service.LeaderboardService
}

func NewLeaderboardHandler(service service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// GetLeaderboard godoc
// @Summary Student leaderboard
// @Description Active students ranked by XP, optionally within one wilaya
// @Tags leaderboard
// @Produce json
// @Param wilaya query string false "Wilaya filter"
// @Success 200 {object} dto.LeaderboardResponse
// @Router /leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	resp, err := h.service.GetLeaderboard(c.Context(), c.Query("wilaya"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetWilayaStandings godoc
// @Summary Wilaya standings
// @Description Total student XP per wilaya
// @Tags leaderboard
// @Produce json
// @Success 200 {object} dto.WilayaLeaderboardResponse
// @Router /leaderboard/wilayas [get]
func (h *LeaderboardHandler) GetWilayaStandings(c *fiber.Ctx) error {
	resp, err := h.service.GetWilayaStandings(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
