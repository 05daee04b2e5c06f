package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"learnquest/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIDParam(t *testing.T) {
	vm := NewValidationMiddleware()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/quizzes/:id", vm.ValidateIDParam("id"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/quizzes/algebra-1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/quizzes/bad%20id", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidatePagination(t *testing.T) {
	vm := NewValidationMiddleware()
	var got dto.Pagination
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/items", vm.ValidatePagination(), func(c *fiber.Ctx) error {
		got = PaginationFrom(c)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/items", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Pagination{Limit: 20, Offset: 0}, got)

	resp, err = app.Test(httptest.NewRequest("GET", "/items?limit=5&offset=10", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Pagination{Limit: 5, Offset: 10}, got)

	for _, q := range []string{"limit=abc", "limit=0", "limit=101", "offset=-1"} {
		resp, err = app.Test(httptest.NewRequest("GET", "/items?"+q, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}
