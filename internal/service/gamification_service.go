package service

import (
	"context"
	"fmt"
	"time"

	"learnquest/internal/config"
	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxActivityAttempts = 3

// XP sources reported to metrics and events.
const (
	XPSourceQuiz   = "quiz"
	XPSourceLesson = "lesson"
	XPSourceCourse = "course"
	XPSourceManual = "manual"
)

// QuizOutcome is a scored, authenticated submission ready for the ledger.
type QuizOutcome struct {
	SubmissionID string
	UserID       string
	QuizID       string
	Result       *domain.Result
	TimeSpent    int
}

// GamificationService owns per-user XP, streak, level and quiz counters.
type GamificationService interface {
	// RecordQuizOutcome applies a submission exactly once per (user, submission ID).
	// It returns the stored submission and whether this call recorded it.
	RecordQuizOutcome(ctx context.Context, outcome QuizOutcome) (*domain.QuizSubmission, bool, error)
	ApplyXPDelta(ctx context.Context, userID string, delta int) error
	TouchActivity(ctx context.Context, userID string, now time.Time) (*dto.ActivityResponse, error)
	GetLevel(xp int) domain.LevelInfo
	Ladder() domain.LevelLadder
	GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	ListSubmissions(ctx context.Context, userID string, pagination dto.Pagination) (*dto.SubmissionListResponse, error)
}

type gamificationService struct {
	userRepo       domain.UserRepository
	progressRepo   domain.ProgressRepository
	submissionRepo domain.SubmissionRepository
	txManager      domain.TransactionManager
	publisher      domain.EventPublisher
	ladder         domain.LevelLadder
	policy         domain.AccuracyPolicy
	loc            *time.Location
}

// NewGamificationService creates a new GamificationService.
func NewGamificationService(
	userRepo domain.UserRepository,
	progressRepo domain.ProgressRepository,
	submissionRepo domain.SubmissionRepository,
	txManager domain.TransactionManager,
	publisher domain.EventPublisher,
	cfg config.GamificationConfig,
) GamificationService {
	policy := domain.CountSkipped
	if !cfg.CountSkippedInAccuracy {
		policy = domain.ExcludeSkipped
	}
	return &gamificationService{
		userRepo:       userRepo,
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		txManager:      txManager,
		publisher:      publisher,
		ladder:         domain.DefaultLadder,
		policy:         policy,
		loc:            cfg.Location(),
	}
}

func (s *gamificationService) requireUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}
	return user, nil
}

func (s *gamificationService) RecordQuizOutcome(ctx context.Context, outcome QuizOutcome) (*domain.QuizSubmission, bool, error) {
	if outcome.Result == nil || outcome.SubmissionID == "" {
		return nil, false, domain.NewInvalidInputError("submission id and result are required")
	}
	if _, err := s.requireUser(ctx, outcome.UserID); err != nil {
		return nil, false, err
	}
	timeSpent := outcome.TimeSpent
	if timeSpent < 0 {
		timeSpent = 0
	}

	r := outcome.Result
	submission := &domain.QuizSubmission{
		ID:          outcome.SubmissionID,
		UserID:      outcome.UserID,
		QuizID:      outcome.QuizID,
		Score:       r.Score,
		Total:       r.Total,
		Answered:    r.Answered,
		Percentage:  r.Percentage,
		Passed:      r.Passed,
		XPEarned:    r.XPEarned,
		TimeSpent:   timeSpent,
		SubmittedAt: time.Now().UTC(),
	}

	var recorded bool
	stored := submission
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		recorded, err = s.submissionRepo.RecordSubmission(txCtx, submission)
		if err != nil {
			return err
		}
		if !recorded {
			stored, err = s.submissionRepo.GetSubmission(txCtx, outcome.UserID, outcome.SubmissionID)
			if err == nil && stored == nil {
				err = fmt.Errorf("submission %s vanished after a duplicate insert", outcome.SubmissionID)
			}
			return err
		}
		delta := domain.QuizStatsDelta(r, s.policy)
		delta.TimeSpent = timeSpent
		return s.userRepo.ApplyStatsDelta(txCtx, outcome.UserID, delta)
	})
	if err != nil {
		return nil, false, asDomainError("failed to record quiz submission", err)
	}

	metrics.QuizSubmitted(r.Passed, !recorded)
	if !recorded {
		logger.Get().Info("Duplicate quiz submission ignored",
			zap.String("submissionID", outcome.SubmissionID),
			zap.String("userID", outcome.UserID))
		return stored, false, nil
	}

	metrics.XPAwarded(XPSourceQuiz, r.XPEarned)
	publish(ctx, s.publisher, domain.NewEvent(domain.EventQuizSubmitted, outcome.UserID, map[string]interface{}{
		"submissionId": submission.ID,
		"quizId":       submission.QuizID,
		"score":        r.Score,
		"total":        r.Total,
		"percentage":   r.Percentage,
		"passed":       r.Passed,
		"xpEarned":     r.XPEarned,
	}))
	return submission, true, nil
}

func (s *gamificationService) ApplyXPDelta(ctx context.Context, userID string, delta int) error {
	if delta < 0 {
		return domain.ValidationErrors{{Field: "delta", Message: "must not be negative", Value: delta}}
	}
	if _, err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	if err := s.userRepo.ApplyStatsDelta(ctx, userID, domain.StatsDelta{XP: delta}); err != nil {
		return asDomainError("failed to apply xp", err)
	}
	metrics.XPAwarded(XPSourceManual, delta)
	logger.Get().Info("XP applied", zap.String("userID", userID), zap.Int("delta", delta))
	return nil
}

// TouchActivity applies the daily streak rule with an optimistic version check.
// When every attempt loses to a concurrent writer, the winner's streak is returned.
func (s *gamificationService) TouchActivity(ctx context.Context, userID string, now time.Time) (*dto.ActivityResponse, error) {
	for attempt := 0; attempt < maxActivityAttempts; attempt++ {
		user, err := s.requireUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		streak, outcome := domain.NextStreak(user.Streak, user.LastActiveAt, now, s.loc)
		ok, err := s.userRepo.UpdateActivity(ctx, userID, streak, now, user.ActivityVersion)
		if err != nil {
			return nil, domain.NewInternalError("failed to update activity", err)
		}
		if !ok {
			continue
		}

		metrics.StreakUpdated(string(outcome))
		if outcome != domain.StreakUnchanged {
			publish(ctx, s.publisher, domain.NewEvent(domain.EventStreakUpdated, userID, map[string]interface{}{
				"streak":  streak,
				"outcome": string(outcome),
			}))
		}
		return &dto.ActivityResponse{Streak: streak, Outcome: string(outcome), LastActiveAt: now}, nil
	}

	logger.Get().Warn("Activity update lost every attempt to concurrent writers", zap.String("userID", userID))
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ActivityResponse{Streak: user.Streak, Outcome: string(domain.StreakUnchanged), LastActiveAt: now}
	if user.LastActiveAt != nil {
		resp.LastActiveAt = *user.LastActiveAt
	}
	return resp, nil
}

func (s *gamificationService) GetLevel(xp int) domain.LevelInfo {
	return s.ladder.LevelFor(xp)
}

func (s *gamificationService) Ladder() domain.LevelLadder {
	out := make(domain.LevelLadder, len(s.ladder))
	copy(out, s.ladder)
	return out
}

func (s *gamificationService) GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}

	var (
		user     *domain.User
		progress []*domain.Progress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetUserByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progressRepo.ListProgressByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewInternalError("failed to load profile", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}

	badges := user.Badges
	if badges == nil {
		badges = []string{}
	}
	resp := &dto.UserProfileResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		ProfilePictureURL: user.ProfilePictureURL,
		Role:              user.Role,
		Wilaya:            user.Wilaya,
		XP:                user.XP,
		Level:             s.GetLevel(user.XP),
		Streak:            user.Streak,
		LastActiveAt:      user.LastActiveAt,
		CoursesCompleted:  user.CoursesCompleted,
		QuizzesCompleted:  user.QuizzesCompleted,
		CorrectAnswers:    user.CorrectAnswers,
		TotalAnswers:      user.TotalAnswers,
		Accuracy:          user.Accuracy(),
		TotalTimeSpent:    user.TotalTimeSpent,
		Badges:            badges,
		Progress:          make([]dto.ProgressResponse, 0, len(progress)),
	}
	for _, p := range progress {
		resp.Progress = append(resp.Progress, dto.NewProgressResponse(p))
	}
	return resp, nil
}

func (s *gamificationService) ListSubmissions(ctx context.Context, userID string, pagination dto.Pagination) (*dto.SubmissionListResponse, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	subs, total, err := s.submissionRepo.ListSubmissionsByUser(ctx, userID, pagination.Limit, pagination.Offset)
	if err != nil {
		return nil, domain.NewInternalError("failed to list submissions", err)
	}
	resp := &dto.SubmissionListResponse{
		Submissions: make([]dto.SubmissionItem, 0, len(subs)),
		PaginationInfo: dto.PaginationInfo{
			TotalItems: total,
			Limit:      pagination.Limit,
			Offset:     pagination.Offset,
		},
	}
	for _, sub := range subs {
		resp.Submissions = append(resp.Submissions, dto.NewSubmissionItem(sub))
	}
	return resp, nil
}
