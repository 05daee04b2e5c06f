package main

import (
	"context"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/handler"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlers struct {
	auth        *handler.AuthHandler
	quiz        *handler.QuizHandler
	session     *handler.SessionHandler
	user        *handler.UserHandler
	progress    *handler.ProgressHandler
	reward      *handler.RewardHandler
	leaderboard *handler.LeaderboardHandler
	admin       *handler.AdminHandler
}

func registerRoutes(app *fiber.App, h handlers, authService service.AuthService, ready func(ctx context.Context) error) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	protected := middleware.Protected(authService)
	optional := middleware.OptionalAuth(authService)
	validate := middleware.NewValidationMiddleware()
	validID := validate.ValidateIDParam("id")

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Get("/google/login", h.auth.GoogleLogin)
	authGroup.Get("/google/callback", h.auth.GoogleCallback)
	authGroup.Post("/refresh", h.auth.RefreshToken)
	authGroup.Post("/logout", protected, h.auth.Logout)

	// Quiz routes; submission is open to anonymous visitors
	api.Get("/quizzes/:id", validID, h.quiz.GetQuiz)
	api.Post("/quizzes/:id/submit", validID, optional, h.quiz.SubmitQuiz)
	api.Post("/quizzes/:id/sessions", validID, optional, h.session.Start)

	sessions := api.Group("/sessions", optional)
	sessions.Get("/:id", validID, h.session.Get)
	sessions.Post("/:id/answer", validID, h.session.Answer)
	sessions.Post("/:id/next", validID, h.session.Next)
	sessions.Delete("/:id", validID, h.session.Abandon)

	// User routes (all protected)
	users := api.Group("/users", protected)
	users.Get("/me", h.user.GetMyProfile)
	users.Get("/me/submissions", validate.ValidatePagination(), h.user.GetMySubmissions)
	users.Post("/me/activity", h.user.RecordActivity)
	api.Get("/levels", h.user.GetLevels)

	progress := api.Group("/progress", protected)
	progress.Post("/lesson-complete", h.progress.CompleteLesson)
	progress.Get("/me", h.progress.GetMyProgress)

	api.Get("/rewards", optional, h.reward.ListRewards)
	api.Post("/rewards/:id/claim", validID, protected, h.reward.ClaimReward)
	api.Post("/rewards/:id/grant", validID, protected, middleware.RequireRole(domain.RoleAdmin), h.reward.GrantReward)

	api.Get("/leaderboard", h.leaderboard.GetLeaderboard)
	api.Get("/leaderboard/wilayas", h.leaderboard.GetWilayaStandings)

	admin := api.Group("/admin", protected, middleware.RequireRole(domain.RoleAdmin))
	admin.Post("/users/:id/xp", validID, h.admin.AwardXP)
}
