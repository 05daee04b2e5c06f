package main

import (
	"context"
	"fmt"
	"os"

	"learnquest/internal/adapter"
	"learnquest/internal/cache"
	"learnquest/internal/config"
	"learnquest/internal/database"
	"learnquest/internal/domain"
	"learnquest/internal/logger"
	"learnquest/internal/repository"
	"learnquest/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultFixturePath = "configs/seed/learnquest.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fixturePath string
	var dryRun bool
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load courses, quizzes, rewards and staff accounts from a YAML fixture",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			if dryRun {
				if _, err := buildQuizzes(fx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fixture ok: %d users, %d courses, %d quizzes, %d rewards\n",
					len(fx.Users), len(fx.Courses), len(fx.Quizzes), len(fx.Rewards))
				return nil
			}
			return run(cmd.Context(), fx)
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "file", "f", defaultFixturePath, "path to the YAML fixture")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the fixture without touching the database")
	return cmd
}

func buildQuizzes(fx *Fixture) ([]*domain.Quiz, error) {
	quizzes := make([]*domain.Quiz, 0, len(fx.Quizzes))
	for _, qf := range fx.Quizzes {
		quiz, err := qf.ToDomain()
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// Seeder writes a fixture through the repository ports.
type Seeder struct {
	users     domain.UserRepository
	courses   domain.CourseRepository
	quizzes   domain.QuizRepository
	rewards   domain.RewardRepository
	quizCache service.QuizCacheService
}

func run(ctx context.Context, fx *Fixture) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	if cfg.DB.Driver == database.DriverMemory {
		return fmt.Errorf("the memory driver keeps no data between processes; seed a SQL database")
	}
	db, err := database.Connect(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	// Cached definitions are dropped so the API serves the seeded version.
	var quizCacheBackend domain.Cache
	if client, err := cache.NewRedisClient(cfg.Redis); err == nil {
		defer client.Close()
		quizCacheBackend = adapter.NewRedisCacheAdapter(client)
	} else {
		log.Info("Redis unavailable, skipping quiz cache invalidation", zap.Error(err))
	}

	quizRepo := repository.NewQuizDatabaseAdapter(db)
	s := &Seeder{
		users:     repository.NewSQLXUserRepository(db),
		courses:   repository.NewSQLXCourseRepository(db),
		quizzes:   quizRepo,
		rewards:   repository.NewSQLXRewardRepository(db),
		quizCache: service.NewQuizCacheService(quizRepo, quizCacheBackend, cfg.Quiz.CacheTTL),
	}
	return s.Apply(ctx, fx)
}

// Apply upserts everything in the fixture. Quizzes are validated before any write.
func (s *Seeder) Apply(ctx context.Context, fx *Fixture) error {
	log := logger.Get()
	quizzes, err := buildQuizzes(fx)
	if err != nil {
		return err
	}

	for _, uf := range fx.Users {
		if err := s.upsertUser(ctx, uf); err != nil {
			return err
		}
	}
	for _, cf := range fx.Courses {
		if err := s.courses.SaveCourse(ctx, cf.ToDomain()); err != nil {
			return fmt.Errorf("course %q: %w", cf.ID, err)
		}
	}
	for _, quiz := range quizzes {
		if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("quiz %q: %w", quiz.ID, err)
		}
		if err := s.quizCache.Invalidate(ctx, quiz.ID); err != nil {
			log.Warn("Failed to invalidate cached quiz", zap.String("quizID", quiz.ID), zap.Error(err))
		}
	}
	for _, rf := range fx.Rewards {
		if err := s.rewards.SaveReward(ctx, rf.ToDomain()); err != nil {
			return fmt.Errorf("reward %q: %w", rf.ID, err)
		}
	}

	log.Info("Seed completed",
		zap.Int("users", len(fx.Users)),
		zap.Int("courses", len(fx.Courses)),
		zap.Int("quizzes", len(quizzes)),
		zap.Int("rewards", len(fx.Rewards)))
	return nil
}

func (s *Seeder) upsertUser(ctx context.Context, uf UserFixture) error {
	existing, err := s.users.GetUserByGoogleID(ctx, uf.GoogleID)
	if err != nil {
		return fmt.Errorf("user %q: %w", uf.Email, err)
	}
	if existing == nil {
		user := uf.ToDomain()
		if err := user.Validate(); err != nil {
			return fmt.Errorf("user %q: %w", uf.Email, err)
		}
		return s.users.CreateUser(ctx, user)
	}
	existing.Email = uf.Email
	if uf.Name != "" {
		existing.Name = uf.Name
	}
	if uf.Role != "" {
		existing.Role = uf.Role
	}
	if uf.Wilaya != "" {
		existing.Wilaya = uf.Wilaya
	}
	return s.users.UpdateUser(ctx, existing)
}
