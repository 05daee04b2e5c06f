package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeForbidden     ErrorCode = "FORBIDDEN"

	// Lookup errors
	CodeQuizNotFound    ErrorCode = "QUIZ_NOT_FOUND"
	CodeCourseNotFound  ErrorCode = "COURSE_NOT_FOUND"
	CodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	CodeRewardNotFound  ErrorCode = "REWARD_NOT_FOUND"
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Ledger errors
	CodeAlreadyClaimed    ErrorCode = "ALREADY_CLAIMED"
	CodeInvalidQuiz       ErrorCode = "INVALID_QUIZ"
	CodeNotEligible       ErrorCode = "NOT_ELIGIBLE"
	CodeRewardUnavailable ErrorCode = "REWARD_UNAVAILABLE"
	CodeSessionState      ErrorCode = "SESSION_STATE"
	CodeSubmissionReused  ErrorCode = "SUBMISSION_REUSED"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// WithContext attaches a detail to the error and returns it for chaining.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil).
		WithContext("quiz_id", quizID)
}

func NewCourseNotFoundError(courseID string) *DomainError {
	return NewError(CodeCourseNotFound, fmt.Sprintf("Course not found with ID: %s", courseID), nil).
		WithContext("course_id", courseID)
}

func NewUserNotFoundError(userID string) *DomainError {
	return NewError(CodeUserNotFound, fmt.Sprintf("User not found with ID: %s", userID), nil).
		WithContext("user_id", userID)
}

func NewRewardNotFoundError(rewardID string) *DomainError {
	return NewError(CodeRewardNotFound, fmt.Sprintf("Reward not found with ID: %s", rewardID), nil).
		WithContext("reward_id", rewardID)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(CodeSessionNotFound, fmt.Sprintf("Quiz session not found with ID: %s", sessionID), nil).
		WithContext("session_id", sessionID)
}

func NewAlreadyClaimedError(rewardID, userID string) *DomainError {
	return NewError(CodeAlreadyClaimed, "Reward already claimed by this user", nil).
		WithContext("reward_id", rewardID).
		WithContext("user_id", userID)
}

func NewInvalidQuizError(quizID, reason string) *DomainError {
	return NewError(CodeInvalidQuiz, fmt.Sprintf("Quiz %s cannot be scored: %s", quizID, reason), nil).
		WithContext("quiz_id", quizID)
}

func NewNotEligibleError(rewardID, requirement string) *DomainError {
	return NewError(CodeNotEligible, "User does not meet the reward requirements", nil).
		WithContext("reward_id", rewardID).
		WithContext("requirement", requirement)
}

func NewRewardUnavailableError(rewardID, reason string) *DomainError {
	return NewError(CodeRewardUnavailable, fmt.Sprintf("Reward is not available: %s", reason), nil).
		WithContext("reward_id", rewardID)
}

func NewSessionStateError(message string) *DomainError {
	return NewError(CodeSessionState, message, nil)
}

// NewSubmissionReusedError reports a submission ID the user already spent on another quiz.
func NewSubmissionReusedError(submissionID, quizID string) *DomainError {
	return NewError(CodeSubmissionReused, "Submission ID was already used for a different quiz", nil).
		WithContext("submission_id", submissionID).
		WithContext("quiz_id", quizID)
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned from request and authoring validation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msg := v[0].Error()
	if len(v) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(v)-1)
	}
	return msg
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max), Value: value}
}
