package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"learnquest/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"quiz not found", domain.NewQuizNotFoundError("q1"), http.StatusNotFound, "QUIZ_NOT_FOUND"},
		{"wrapped user not found", fmt.Errorf("lookup: %w", domain.NewUserNotFoundError("u1")), http.StatusNotFound, "USER_NOT_FOUND"},
		{"already claimed", domain.NewAlreadyClaimedError("r1", "u1"), http.StatusConflict, "ALREADY_CLAIMED"},
		{"session state", domain.NewSessionStateError("locked"), http.StatusConflict, "SESSION_STATE"},
		{"submission reused", domain.NewSubmissionReusedError("attempt-1", "quiz-2"), http.StatusConflict, "SUBMISSION_REUSED"},
		{"invalid quiz", domain.NewInvalidQuizError("q1", "empty"), http.StatusUnprocessableEntity, "INVALID_QUIZ"},
		{"not eligible", domain.NewNotEligibleError("r1", "xp"), http.StatusForbidden, "NOT_ELIGIBLE"},
		{"unavailable", domain.NewRewardUnavailableError("r1", "expired"), http.StatusForbidden, "REWARD_UNAVAILABLE"},
		{"unauthorized", domain.NewUnauthorizedError("login"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid input", domain.NewInvalidInputError("bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{"validation list", domain.ValidationErrors{domain.NewMissingFieldError("courseId")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"single validation", domain.NewMissingFieldError("lessonId"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"fiber error", fiber.NewError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestErrorHandler_DetailsCarryContext(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/", func(c *fiber.Ctx) error { return domain.NewAlreadyClaimedError("r1", "u1") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "r1", body.Details["reward_id"])
	assert.Equal(t, "u1", body.Details["user_id"])
}

func TestStatusFor_UnknownCodeIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.ErrorCode("SOMETHING_NEW")))
	assert.Equal(t, http.StatusConflict, StatusFor(domain.CodeAlreadyClaimed))
}
