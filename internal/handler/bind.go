package handler

import (
	"learnquest/internal/domain"
	"learnquest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

var requestValidator = validation.NewValidator()

// bindJSON parses the request body into out and validates its tags.
func bindJSON(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return domain.NewInvalidInputError("invalid request body").WithContext("cause", err.Error())
		}
	}
	return requestValidator.Struct(out)
}
