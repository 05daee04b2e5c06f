package handler

import (
	"learnquest/internal/dto"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(service service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// CompleteLesson godoc
// @Summary Record a completed lesson
// @Description Adds the lesson to the caller's course progress. Lesson XP and the course bonus are credited once.
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.LessonCompleteRequest true "Lesson"
// @Success 200 {object} dto.LessonCompletionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /progress/lesson-complete [post]
func (h *ProgressHandler) CompleteLesson(c *fiber.Ctx) error {
	var req dto.LessonCompleteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	completion, err := h.service.RecordLessonCompletion(c.Context(), middleware.UserIDFrom(c), req.CourseID, req.LessonID, req.TimeSpent)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLessonCompletionResponse(completion))
}

// GetMyProgress godoc
// @Summary List my course progress
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.ProgressResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /progress/me [get]
func (h *ProgressHandler) GetMyProgress(c *fiber.Ctx) error {
	records, err := h.service.GetMyProgress(c.Context(), middleware.UserIDFrom(c))
	if err != nil {
		return err
	}
	out := make([]dto.ProgressResponse, 0, len(records))
	for _, p := range records {
		out = append(out, dto.NewProgressResponse(p))
	}
	return c.JSON(out)
}
