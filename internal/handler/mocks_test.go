package handler_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/middleware"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockQuizService struct {
	GetQuizFunc              func(ctx context.Context, quizID string) (*dto.PublicQuizResponse, error)
	SubmitQuizFunc           func(ctx context.Context, userID, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error)
	GetAuthoritativeQuizFunc func(ctx context.Context, quizID string) (*domain.Quiz, error)
}

func (m *MockQuizService) GetQuiz(ctx context.Context, quizID string) (*dto.PublicQuizResponse, error) {
	if m.GetQuizFunc != nil {
		return m.GetQuizFunc(ctx, quizID)
	}
	panic("MockQuizService.GetQuizFunc not implemented")
}
func (m *MockQuizService) SubmitQuiz(ctx context.Context, userID, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error) {
	if m.SubmitQuizFunc != nil {
		return m.SubmitQuizFunc(ctx, userID, quizID, req)
	}
	panic("MockQuizService.SubmitQuizFunc not implemented")
}
func (m *MockQuizService) GetAuthoritativeQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	if m.GetAuthoritativeQuizFunc != nil {
		return m.GetAuthoritativeQuizFunc(ctx, quizID)
	}
	panic("MockQuizService.GetAuthoritativeQuizFunc not implemented")
}

type MockSessionService struct {
	StartFunc   func(ctx context.Context, userID, quizID string) (*dto.SessionResponse, error)
	GetFunc     func(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	AnswerFunc  func(ctx context.Context, userID, sessionID string, option int) (*dto.SessionResponse, error)
	NextFunc    func(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	AbandonFunc func(ctx context.Context, userID, sessionID string) error
}

func (m *MockSessionService) Start(ctx context.Context, userID, quizID string) (*dto.SessionResponse, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, userID, quizID)
	}
	panic("MockSessionService.StartFunc not implemented")
}
func (m *MockSessionService) Get(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, sessionID)
	}
	panic("MockSessionService.GetFunc not implemented")
}
func (m *MockSessionService) Answer(ctx context.Context, userID, sessionID string, option int) (*dto.SessionResponse, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, userID, sessionID, option)
	}
	panic("MockSessionService.AnswerFunc not implemented")
}
func (m *MockSessionService) Next(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, userID, sessionID)
	}
	panic("MockSessionService.NextFunc not implemented")
}
func (m *MockSessionService) Abandon(ctx context.Context, userID, sessionID string) error {
	if m.AbandonFunc != nil {
		return m.AbandonFunc(ctx, userID, sessionID)
	}
	panic("MockSessionService.AbandonFunc not implemented")
}

type MockGamificationService struct {
	RecordQuizOutcomeFunc func(ctx context.Context, outcome service.QuizOutcome) (*domain.QuizSubmission, bool, error)
	ApplyXPDeltaFunc      func(ctx context.Context, userID string, delta int) error
	TouchActivityFunc     func(ctx context.Context, userID string, now time.Time) (*dto.ActivityResponse, error)
	GetProfileFunc        func(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	ListSubmissionsFunc   func(ctx context.Context, userID string, pagination dto.Pagination) (*dto.SubmissionListResponse, error)
}

func (m *MockGamificationService) RecordQuizOutcome(ctx context.Context, outcome service.QuizOutcome) (*domain.QuizSubmission, bool, error) {
	if m.RecordQuizOutcomeFunc != nil {
		return m.RecordQuizOutcomeFunc(ctx, outcome)
	}
	panic("MockGamificationService.RecordQuizOutcomeFunc not implemented")
}
func (m *MockGamificationService) ApplyXPDelta(ctx context.Context, userID string, delta int) error {
	if m.ApplyXPDeltaFunc != nil {
		return m.ApplyXPDeltaFunc(ctx, userID, delta)
	}
	panic("MockGamificationService.ApplyXPDeltaFunc not implemented")
}
func (m *MockGamificationService) TouchActivity(ctx context.Context, userID string, now time.Time) (*dto.ActivityResponse, error) {
	if m.TouchActivityFunc != nil {
		return m.TouchActivityFunc(ctx, userID, now)
	}
	panic("MockGamificationService.TouchActivityFunc not implemented")
}
func (m *MockGamificationService) GetLevel(xp int) domain.LevelInfo {
	return domain.DefaultLadder.LevelFor(xp)
}
func (m *MockGamificationService) Ladder() domain.LevelLadder {
	return domain.DefaultLadder
}
func (m *MockGamificationService) GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	panic("MockGamificationService.GetProfileFunc not implemented")
}
func (m *MockGamificationService) ListSubmissions(ctx context.Context, userID string, pagination dto.Pagination) (*dto.SubmissionListResponse, error) {
	if m.ListSubmissionsFunc != nil {
		return m.ListSubmissionsFunc(ctx, userID, pagination)
	}
	panic("MockGamificationService.ListSubmissionsFunc not implemented")
}

type MockProgressService struct {
	RecordLessonCompletionFunc func(ctx context.Context, userID, courseID, lessonID string, timeSpent int) (*domain.LessonCompletion, error)
	GetMyProgressFunc          func(ctx context.Context, userID string) ([]*domain.Progress, error)
}

func (m *MockProgressService) RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID string, timeSpent int) (*domain.LessonCompletion, error) {
	if m.RecordLessonCompletionFunc != nil {
		return m.RecordLessonCompletionFunc(ctx, userID, courseID, lessonID, timeSpent)
	}
	panic("MockProgressService.RecordLessonCompletionFunc not implemented")
}
func (m *MockProgressService) GetMyProgress(ctx context.Context, userID string) ([]*domain.Progress, error) {
	if m.GetMyProgressFunc != nil {
		return m.GetMyProgressFunc(ctx, userID)
	}
	panic("MockProgressService.GetMyProgressFunc not implemented")
}

type MockRewardService struct {
	GrantFunc func(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error)
	ClaimFunc func(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error)
	ListFunc  func(ctx context.Context, userID string) ([]dto.RewardResponse, error)
}

func (m *MockRewardService) Grant(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error) {
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, rewardID, userID)
	}
	panic("MockRewardService.GrantFunc not implemented")
}
func (m *MockRewardService) Claim(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, rewardID, userID)
	}
	panic("MockRewardService.ClaimFunc not implemented")
}
func (m *MockRewardService) List(ctx context.Context, userID string) ([]dto.RewardResponse, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	panic("MockRewardService.ListFunc not implemented")
}

type MockLeaderboardService struct {
	GetLeaderboardFunc     func(ctx context.Context, wilaya string) (*dto.LeaderboardResponse, error)
	GetWilayaStandingsFunc func(ctx context.Context) (*dto.WilayaLeaderboardResponse, error)
}

func (m *MockLeaderboardService) GetLeaderboard(ctx context.Context, wilaya string) (*dto.LeaderboardResponse, error) {
	if m.GetLeaderboardFunc != nil {
		return m.GetLeaderboardFunc(ctx, wilaya)
	}
	panic("MockLeaderboardService.GetLeaderboardFunc not implemented")
}
func (m *MockLeaderboardService) GetWilayaStandings(ctx context.Context) (*dto.WilayaLeaderboardResponse, error) {
	if m.GetWilayaStandingsFunc != nil {
		return m.GetWilayaStandingsFunc(ctx)
	}
	panic("MockLeaderboardService.GetWilayaStandingsFunc not implemented")
}

type MockAuthService struct {
	GetGoogleLoginURLFunc    func(state string) string
	HandleGoogleCallbackFunc func(ctx context.Context, code, receivedState, expectedState string) (string, string, *domain.User, error)
	ValidateJWTFunc          func(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	RefreshTokenFunc         func(ctx context.Context, refreshTokenString string) (string, string, error)
}

func (m *MockAuthService) GetGoogleLoginURL(state string) string {
	if m.GetGoogleLoginURLFunc != nil {
		return m.GetGoogleLoginURLFunc(state)
	}
	panic("MockAuthService.GetGoogleLoginURLFunc not implemented")
}
func (m *MockAuthService) HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (string, string, *domain.User, error) {
	if m.HandleGoogleCallbackFunc != nil {
		return m.HandleGoogleCallbackFunc(ctx, code, receivedState, expectedState)
	}
	panic("MockAuthService.HandleGoogleCallbackFunc not implemented")
}
func (m *MockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	if m.ValidateJWTFunc != nil {
		return m.ValidateJWTFunc(ctx, tokenString)
	}
	panic("MockAuthService.ValidateJWTFunc not implemented")
}
func (m *MockAuthService) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	panic("MockAuthService.CreateJWT not implemented")
}
func (m *MockAuthService) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshTokenString)
	}
	panic("MockAuthService.RefreshTokenFunc not implemented")
}

// --- helpers ---

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

// asUser stands in for the auth middleware.
func asUser(userID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, userID)
		c.Locals(middleware.RoleKey, role)
		return c.Next()
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}
