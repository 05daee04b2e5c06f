// @title LearnQuest API
// @version 1.0
// @description Assessment and gamification API for the LearnQuest learning platform.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.email support@learnquest.dz
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "learnquest/cmd/api/docs"
	"learnquest/internal/adapter"
	"learnquest/internal/cache"
	"learnquest/internal/config"
	"learnquest/internal/database"
	"learnquest/internal/domain"
	"learnquest/internal/event"
	"learnquest/internal/handler"
	"learnquest/internal/logger"
	"learnquest/internal/middleware"
	"learnquest/internal/repository"
	"learnquest/internal/repository/memory"
	"learnquest/internal/service"
	"learnquest/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const resultCacheTTL = 24 * time.Hour

// repositories groups the storage ports so the memory and SQL drivers wire the same way.
type repositories struct {
	users       domain.UserRepository
	quizzes     domain.QuizRepository
	courses     domain.CourseRepository
	progress    domain.ProgressRepository
	submissions domain.SubmissionRepository
	rewards     domain.RewardRepository
	tx          domain.TransactionManager
	db          *sqlx.DB
}

func openRepositories(cfg *config.Config) (*repositories, error) {
	if cfg.DB.Driver == database.DriverMemory {
		logger.Get().Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:       store,
			quizzes:     store,
			courses:     store,
			progress:    store,
			submissions: store,
			rewards:     store,
			tx:          store,
		}, nil
	}

	if cfg.DB.AutoMigrate {
		migrationDB, err := database.OpenMigrationDB(cfg.DB.Driver, cfg.GetDSN())
		if err != nil {
			return nil, err
		}
		err = database.RunMigrations(cfg.DB.Driver, migrationDB)
		migrationDB.Close()
		if err != nil {
			return nil, err
		}
	}

	db, err := database.Connect(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		return nil, err
	}
	return &repositories{
		users:       repository.NewSQLXUserRepository(db),
		quizzes:     repository.NewQuizDatabaseAdapter(db),
		courses:     repository.NewSQLXCourseRepository(db),
		progress:    repository.NewSQLXProgressRepository(db),
		submissions: repository.NewSQLXSubmissionRepository(db),
		rewards:     repository.NewSQLXRewardRepository(db),
		tx:          repository.NewTxManager(db),
		db:          db,
	}, nil
}

// openCache prefers Redis and falls back to the in-process cache.
func openCache(cfg *config.Config) (domain.Cache, func()) {
	appLogger := logger.Get()
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		if errors.Is(err, cache.ErrRedisNotConfigured) {
			appLogger.Warn("Redis is not configured, using in-process cache")
		} else {
			appLogger.Error("Redis is unavailable, using in-process cache", zap.Error(err))
		}
		return cache.NewMemoryCache(), func() {}
	}
	appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
	return adapter.NewRedisCacheAdapter(redisClient), func() { _ = redisClient.Close() }
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	repos, err := openRepositories(cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}

	cacheClient, closeCache := openCache(cfg)

	publisher, err := event.NewPublisher(cfg.RabbitMQ)
	if err != nil {
		appLogger.Error("Event publisher unavailable, events are dropped", zap.Error(err))
		publisher = event.NoopPublisher{}
	}

	srv, err := newServer(cfg, repos, cacheClient, publisher)
	if err != nil {
		appLogger.Fatal("Failed to build server", zap.Error(err))
	}
	app := srv.app

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	srv.sessions.Close(ctx)
	if err := publisher.Close(); err != nil {
		appLogger.Warn("Failed to close event publisher", zap.Error(err))
	}
	closeCache()
	if repos.db != nil {
		repos.db.Close()
	}
	appLogger.Info("Server exited gracefully")
}

type server struct {
	app      *fiber.App
	auth     service.AuthService
	sessions *session.Manager
}

// newServer wires services, handlers and routes over the given storage.
func newServer(cfg *config.Config, repos *repositories, cacheClient domain.Cache, publisher domain.EventPublisher) (*server, error) {
	gamificationService := service.NewGamificationService(repos.users, repos.progress, repos.submissions, repos.tx, publisher, cfg.Gamification)
	quizCacheService := service.NewQuizCacheService(repos.quizzes, cacheClient, cfg.Quiz.CacheTTL)
	resultCache := service.NewSubmissionResultCache(cacheClient, resultCacheTTL)
	quizService := service.NewQuizService(repos.quizzes, quizCacheService, resultCache, gamificationService)
	progressService := service.NewProgressService(repos.users, repos.courses, repos.progress, repos.tx, publisher, cfg.Gamification)
	rewardService := service.NewRewardService(repos.rewards, repos.users, repos.tx, publisher)
	leaderboardService := service.NewLeaderboardService(repos.users, cacheClient, cfg.Leaderboard)

	sessionManager := session.NewManager(cacheClient, session.ManagerConfig{
		TTL:               cfg.Quiz.SessionTTL,
		QuestionTimeLimit: cfg.Quiz.QuestionTimeLimit,
	})
	sessionService := service.NewSessionService(sessionManager, quizService)

	authService, err := service.NewAuthService(repos.users, gamificationService, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	logger.Get().Info("Services initialized")

	h := handlers{
		auth:        handler.NewAuthHandler(authService),
		quiz:        handler.NewQuizHandler(quizService),
		session:     handler.NewSessionHandler(sessionService),
		user:        handler.NewUserHandler(gamificationService),
		progress:    handler.NewProgressHandler(progressService),
		reward:      handler.NewRewardHandler(rewardService),
		leaderboard: handler.NewLeaderboardHandler(leaderboardService),
		admin:       handler.NewAdminHandler(gamificationService),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,Idempotency-Key",
		MaxAge:       300,
	}))

	registerRoutes(app, h, authService, readinessCheck(repos, cacheClient))
	return &server{app: app, auth: authService, sessions: sessionManager}, nil
}

// readinessCheck pings the database and the cache.
func readinessCheck(repos *repositories, c domain.Cache) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if repos.db != nil {
			if err := repos.db.PingContext(ctx); err != nil {
				return err
			}
		}
		return c.Ping(ctx)
	}
}
