package middleware

import (
	"errors"
	"net/http"

	"learnquest/internal/domain"
	"learnquest/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every non-validation failure.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse lists every rejected field of a request.
type ValidationErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Status  int                      `json:"status"`
	Errors  []domain.ValidationError `json:"errors"`
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeNotFound:        http.StatusNotFound,
	domain.CodeQuizNotFound:    http.StatusNotFound,
	domain.CodeCourseNotFound:  http.StatusNotFound,
	domain.CodeUserNotFound:    http.StatusNotFound,
	domain.CodeRewardNotFound:  http.StatusNotFound,
	domain.CodeSessionNotFound: http.StatusNotFound,

	domain.CodeInvalidInput:  http.StatusBadRequest,
	domain.CodeValidation:    http.StatusBadRequest,
	domain.CodeMissingField:  http.StatusBadRequest,
	domain.CodeInvalidFormat: http.StatusBadRequest,
	domain.CodeOutOfRange:    http.StatusBadRequest,

	domain.CodeAlreadyClaimed:   http.StatusConflict,
	domain.CodeSessionState:     http.StatusConflict,
	domain.CodeSubmissionReused: http.StatusConflict,

	domain.CodeInvalidQuiz: http.StatusUnprocessableEntity,

	domain.CodeNotEligible:       http.StatusForbidden,
	domain.CodeRewardUnavailable: http.StatusForbidden,
	domain.CodeForbidden:         http.StatusForbidden,

	domain.CodeUnauthorized: http.StatusUnauthorized,
}

// StatusFor maps a domain error code to its HTTP status. Unknown codes are 500.
func StatusFor(code domain.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func validationFailure(c *fiber.Ctx, errs []domain.ValidationError) error {
	logger.Get().Debug("Request failed validation",
		zap.String("path", c.Path()),
		zap.Int("errors", len(errs)),
	)
	return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
		Code:    string(domain.CodeValidation),
		Message: "Request validation failed",
		Status:  http.StatusBadRequest,
		Errors:  errs,
	})
}

// ErrorHandler renders errors returned by handlers. It is installed as the
// fiber.Config ErrorHandler so handlers only return errors.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var listErr domain.ValidationErrors
		if errors.As(err, &listErr) {
			return validationFailure(c, listErr)
		}
		var fieldErr domain.ValidationError
		if errors.As(err, &fieldErr) {
			return validationFailure(c, []domain.ValidationError{fieldErr})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			status := StatusFor(domainErr.Code)
			fields := []zap.Field{
				zap.String("path", c.Path()),
				zap.String("code", string(domainErr.Code)),
				zap.Int("status", status),
			}
			if domainErr.Cause != nil {
				fields = append(fields, zap.Error(domainErr.Cause))
			}
			if status >= http.StatusInternalServerError {
				logger.Get().Error(domainErr.Message, fields...)
			} else {
				logger.Get().Info(domainErr.Message, fields...)
			}
			return c.Status(status).JSON(ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Status:  status,
				Details: domainErr.Context,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
				Status:  fiberErr.Code,
			})
		}

		logger.Get().Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: "Internal server error",
			Status:  http.StatusInternalServerError,
		})
	}
}
