package handler

import (
	"learnquest/internal/dto"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler exposes timed, server-run quiz attempts.
type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(service service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Start godoc
// @Summary Start a timed quiz session
// @Description Shows the first question and starts its countdown
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID"
// @Success 201 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/sessions [post]
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	resp, err := h.service.Start(c.Context(), middleware.UserIDFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get godoc
// @Summary Get a quiz session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	resp, err := h.service.Get(c.Context(), middleware.UserIDFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Answer godoc
// @Summary Answer the current question
// @Description Locks the current question with the selected option and reveals the answer
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body dto.SessionAnswerRequest true "Selected option"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Question already locked or time is up"
// @Router /sessions/{id}/answer [post]
func (h *SessionHandler) Answer(c *fiber.Ctx) error {
	var req dto.SessionAnswerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	resp, err := h.service.Answer(c.Context(), middleware.UserIDFrom(c), c.Params("id"), *req.SelectedOption)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Next godoc
// @Summary Move to the next question
// @Description Past the last question the session completes and the result is recorded
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Current question not locked yet"
// @Router /sessions/{id}/next [post]
func (h *SessionHandler) Next(c *fiber.Ctx) error {
	resp, err := h.service.Next(c.Context(), middleware.UserIDFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Abandon godoc
// @Summary Abandon a quiz session
// @Tags sessions
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Abandon(c *fiber.Ctx) error {
	if err := h.service.Abandon(c.Context(), middleware.UserIDFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
