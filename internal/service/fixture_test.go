package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"learnquest/internal/cache"
	"learnquest/internal/config"
	"learnquest/internal/domain"
	"learnquest/internal/event"
	"learnquest/internal/repository/memory"
	"learnquest/internal/service"
	"learnquest/internal/session"
)

type testEnv struct {
	store        *memory.Store
	cache        *cache.MemoryCache
	events       *event.Recorder
	gamification service.GamificationService
	quizzes      service.QuizService
	quizCache    service.QuizCacheService
	progress     service.ProgressService
	rewards      service.RewardService
	leaderboard  service.LeaderboardService
	sessions     service.SessionService
	manager      *session.Manager
}

func gamificationConfig() config.GamificationConfig {
	return config.GamificationConfig{
		LessonXP:               10,
		CourseXPDefault:        50,
		CountSkippedInAccuracy: true,
		Timezone:               "UTC",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	c := cache.NewMemoryCache()
	rec := event.NewRecorder()

	gamification := service.NewGamificationService(store, store, store, store, rec, gamificationConfig())
	quizCache := service.NewQuizCacheService(store, c, time.Minute)
	results := service.NewSubmissionResultCache(c, time.Minute)
	quizzes := service.NewQuizService(store, quizCache, results, gamification)
	manager := session.NewManager(c, session.ManagerConfig{TTL: time.Minute})

	return &testEnv{
		store:        store,
		cache:        c,
		events:       rec,
		gamification: gamification,
		quizzes:      quizzes,
		quizCache:    quizCache,
		progress:     service.NewProgressService(store, store, store, store, rec, gamificationConfig()),
		rewards:      service.NewRewardService(store, store, store, rec),
		leaderboard:  service.NewLeaderboardService(store, c, config.LeaderboardConfig{Limit: 10, CacheTTL: time.Minute}),
		sessions:     service.NewSessionService(manager, quizzes),
		manager:      manager,
	}
}

func (e *testEnv) addUser(t *testing.T, id string) *domain.User {
	t.Helper()
	u := domain.NewUser("google-"+id, id+"@example.com")
	u.ID = id
	u.Name = "User " + id
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

// addQuiz stores a published quiz of n questions whose correct option is always 0.
func (e *testEnv) addQuiz(t *testing.T, id string, n int) *domain.Quiz {
	t.Helper()
	questions := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, domain.Question{
			ID:   fmt.Sprintf("%s-q%d", id, i),
			Text: fmt.Sprintf("Question %d", i),
			Options: []domain.Option{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
		})
	}
	q := domain.NewQuiz(id, "Quiz "+id, questions)
	require.NoError(t, e.store.SaveQuiz(context.Background(), q))
	return q
}

func (e *testEnv) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.store.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}
