package service

import (
	"errors"

	"learnquest/internal/domain"
)

// asDomainError passes domain and validation errors through and wraps
// anything else as an internal error.
func asDomainError(message string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *domain.DomainError
	var validationErrs domain.ValidationErrors
	if errors.As(err, &domainErr) || errors.As(err, &validationErrs) {
		return err
	}
	return domain.NewInternalError(message, err)
}
