package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"learnquest/internal/domain"
	"learnquest/internal/util"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validator provides request validation functionality
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field names in reported
// errors use the json tag so they match the request body.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates a request DTO and converts failures to domain.ValidationErrors.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewInvalidInputError(err.Error())
	}
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toValidationError(fe))
	}
	return out
}

func toValidationError(fe validator.FieldError) domain.ValidationError {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return domain.NewMissingFieldError(field)
	case "min":
		return domain.ValidationError{Field: field, Message: "must be at least " + fe.Param(), Value: fe.Value()}
	case "max":
		return domain.ValidationError{Field: field, Message: "must be at most " + fe.Param(), Value: fe.Value()}
	default:
		return domain.ValidationError{Field: field, Message: fmt.Sprintf("failed %q validation", fe.Tag()), Value: fe.Value()}
	}
}

// fieldPath drops the top-level struct name: "SubmitQuizRequest.answers[0].questionId" -> "answers[0].questionId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// ValidateID checks a path identifier. Ids are either ULIDs or authored slugs.
func (v *Validator) ValidateID(field, id string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errs = append(errs, domain.NewMissingFieldError(field))
		return errs
	}
	if !util.IsULID(id) && !isValidIdentifier(id) {
		errs = append(errs, domain.NewInvalidFormatError(field, id))
	}
	return errs
}

// ValidatePagination bounds limit and offset query parameters.
func (v *Validator) ValidatePagination(limit, offset, maxLimit int) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if limit < 1 || limit > maxLimit {
		errs = append(errs, domain.NewOutOfRangeError("limit", limit, 1, maxLimit))
	}
	if offset < 0 {
		errs = append(errs, domain.ValidationError{Field: "offset", Message: "must not be negative", Value: offset})
	}
	return errs
}

// isValidIdentifier allows alphanumeric, hyphens, and underscores, 1-64 characters
func isValidIdentifier(s string) bool {
	if len(s) == 0 || len(s) > 64 {
		return false
	}
	return identifierPattern.MatchString(s)
}
