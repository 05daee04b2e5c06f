package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	oauthStateCookieName = "oauthstate"
	oauthStateTTL        = 10 * time.Minute
)

type AuthHandler struct {
	authService service.AuthService
	now         func() time.Time
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService, now: time.Now}
}

func newOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *AuthHandler) setStateCookie(c *fiber.Ctx, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookieName,
		Value:    value,
		Expires:  h.now().Add(ttl),
		HTTPOnly: true,
		Secure:   c.Secure(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func oauthFailure(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(middleware.ErrorResponse{Code: code, Message: msg, Status: status})
}

// GoogleLogin starts the OAuth flow with a fresh CSRF state cookie.
// @Summary Initiate Google Login
// @Description Redirects the user to Google's OAuth2 consent page.
// @Tags auth
// @Success 307 {string} string "Redirects to Google"
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state, err := newOAuthState()
	if err != nil {
		logger.Get().Error("OAuth state generation failed", zap.Error(err))
		return oauthFailure(c, fiber.StatusInternalServerError, "OAUTH_STATE_GENERATION_ERROR", "Could not generate state for OAuth flow")
	}
	h.setStateCookie(c, state, oauthStateTTL)
	return c.Redirect(h.authService.GetGoogleLoginURL(state), fiber.StatusTemporaryRedirect)
}

// GoogleCallback finishes the OAuth flow. A successful login counts as the
// day's activity for the streak.
// @Summary Google OAuth2 Callback
// @Description Authenticates the user after Google login and issues JWTs.
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State string for CSRF protection"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid state or code"
// @Failure 403 {object} middleware.ErrorResponse "Account disabled"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	expected := c.Cookies(oauthStateCookieName)
	// the state is single use
	h.setStateCookie(c, "", -time.Hour)

	if code == "" {
		return oauthFailure(c, fiber.StatusBadRequest, "MISSING_CODE", "Authorization code is missing")
	}
	if state == "" || expected == "" || state != expected {
		logger.Get().Warn("OAuth state mismatch", zap.Bool("cookiePresent", expected != ""))
		return oauthFailure(c, fiber.StatusBadRequest, "INVALID_STATE", "OAuth state mismatch or missing")
	}

	accessToken, refreshToken, user, err := h.authService.HandleGoogleCallback(c.Context(), code, state, expected)
	var domainErr *domain.DomainError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidAuthState), errors.Is(err, service.ErrFailedToExchangeToken):
		logger.Get().Warn("Google OAuth callback rejected", zap.Error(err))
		return oauthFailure(c, fiber.StatusBadRequest, "OAUTH_CALLBACK_ERROR", err.Error())
	case errors.As(err, &domainErr):
		return err
	default:
		logger.Get().Error("Google OAuth callback failed", zap.Error(err))
		return oauthFailure(c, fiber.StatusInternalServerError, "OAUTH_PROCESSING_ERROR", "Error processing Google login")
	}

	logger.Get().Info("User signed in", zap.String("userID", user.ID), zap.Int("streak", user.Streak))
	return c.JSON(dto.LoginResponse{
		TokenResponse: dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken},
		UserID:        user.ID,
		Streak:        user.Streak,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair.
// @Summary Refresh JWT tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Refresh token missing"
// @Failure 401 {object} middleware.ErrorResponse "Refresh token invalid or expired"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	access, refresh, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{AccessToken: access, RefreshToken: refresh})
}

// Logout is a no-op on the server; tokens are stateless.
// @Summary Logout user
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	logger.Get().Info("User logged out", zap.String("userID", middleware.UserIDFrom(c)))
	return c.JSON(dto.MessageResponse{Message: "Logout successful. Please discard your tokens."})
}
