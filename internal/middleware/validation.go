package middleware

import (
	"strconv"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// PaginationKey holds the parsed dto.Pagination in fiber.Ctx locals.
	PaginationKey = "pagination"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParam checks the named path parameter before the handler runs.
func (vm *ValidationMiddleware) ValidateIDParam(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if errs := vm.validator.ValidateID(param, c.Params(param)); len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}
		return c.Next()
	}
}

// ValidatePagination parses limit/offset query parameters with defaults and
// stores the result under PaginationKey.
func (vm *ValidationMiddleware) ValidatePagination() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := parseIntQuery(c, "limit", defaultPageLimit)
		if err != nil {
			return err
		}
		offset, err := parseIntQuery(c, "offset", 0)
		if err != nil {
			return err
		}
		if errs := vm.validator.ValidatePagination(limit, offset, maxPageLimit); len(errs) > 0 {
			return errs
		}
		c.Locals(PaginationKey, dto.Pagination{Limit: limit, Offset: offset})
		return c.Next()
	}
}

func parseIntQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationErrors{domain.NewInvalidFormatError(name, raw)}
	}
	return n, nil
}

// PaginationFrom returns the parsed pagination or the defaults.
func PaginationFrom(c *fiber.Ctx) dto.Pagination {
	if p, ok := c.Locals(PaginationKey).(dto.Pagination); ok {
		return p
	}
	return dto.Pagination{Limit: defaultPageLimit}
}
