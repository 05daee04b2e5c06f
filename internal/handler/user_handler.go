package handler

import (
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	gamification service.GamificationService
	now          func() time.Time
}

func NewUserHandler(gamification service.GamificationService) *UserHandler {
	return &UserHandler{gamification: gamification, now: time.Now}
}

// GetMyProfile retrieves the profile of the currently authenticated user.
// @Summary Get My Profile
// @Description Profile with XP, level, streak, badges and course progress
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users/me [get]
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	profile, err := h.gamification.GetProfile(c.Context(), middleware.UserIDFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// GetMySubmissions lists the caller's recorded quiz submissions, newest first.
// @Summary Get My Quiz Submissions
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Items per page" default(20)
// @Param offset query int false "Items to skip" default(0)
// @Success 200 {object} dto.SubmissionListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid pagination"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /users/me/submissions [get]
func (h *UserHandler) GetMySubmissions(c *fiber.Ctx) error {
	resp, err := h.gamification.ListSubmissions(c.Context(), middleware.UserIDFrom(c), middleware.PaginationFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RecordActivity counts a visit toward the caller's daily streak.
// @Summary Record Activity
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.ActivityResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/me/activity [post]
func (h *UserHandler) RecordActivity(c *fiber.Ctx) error {
	resp, err := h.gamification.TouchActivity(c.Context(), middleware.UserIDFrom(c), h.now())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetLevels godoc
// @Summary List level thresholds
// @Tags users
// @Produce json
// @Success 200 {array} domain.LevelTier
// @Router /levels [get]
func (h *UserHandler) GetLevels(c *fiber.Ctx) error {
	ladder := h.gamification.Ladder()
	if ladder == nil {
		ladder = domain.LevelLadder{}
	}
	return c.JSON(ladder)
}
