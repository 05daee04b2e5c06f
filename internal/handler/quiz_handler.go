package handler

import (
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the submission id when the body does not.
const IdempotencyKeyHeader = "Idempotency-Key"

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service service.QuizService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService) *QuizHandler {
	return &QuizHandler{
		service: service,
	}
}

// GetQuiz godoc
// @Summary Get a quiz
// @Description Returns a published quiz without correctness flags or explanations
// @Tags quiz
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.PublicQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	quiz, err := h.service.GetQuiz(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

// SubmitQuiz godoc
// @Summary Submit quiz answers
// @Description Scores the answers on the server. Signed-in users are credited once per submission id; a submission id is scoped to the user and its quiz.
// @Tags quiz
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID"
// @Param Idempotency-Key header string false "Submission id used when the body has none"
// @Param request body dto.SubmitQuizRequest true "Selected options"
// @Success 200 {object} dto.QuizResultResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/submit [post]
func (h *QuizHandler) SubmitQuiz(c *fiber.Ctx) error {
	var req dto.SubmitQuizRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.SubmissionID == "" {
		req.SubmissionID = c.Get(IdempotencyKeyHeader)
		if err := requestValidator.Struct(&req); err != nil {
			return err
		}
	}

	userID := middleware.UserIDFrom(c)
	result, err := h.service.SubmitQuiz(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return err
	}
	logger.Get().Info("Quiz submitted",
		zap.String("quizID", result.QuizID),
		zap.String("userID", userID),
		zap.Int("score", result.Score),
		zap.Bool("duplicate", result.Duplicate))
	return c.JSON(result)
}
