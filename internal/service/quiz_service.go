package service

import (
	"context"
	"errors"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/metrics"
	"learnquest/internal/util"

	"go.uber.org/zap"
)

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	// GetQuiz returns the public view of a published quiz and counts the view.
	GetQuiz(ctx context.Context, quizID string) (*dto.PublicQuizResponse, error)
	// SubmitQuiz scores answers server-side. An empty userID scores without
	// touching the ledger.
	SubmitQuiz(ctx context.Context, userID, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error)
	// GetAuthoritativeQuiz returns the full definition including the answer key.
	GetAuthoritativeQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
}

type quizService struct {
	repo         domain.QuizRepository
	quizCache    QuizCacheService
	resultCache  SubmissionResultCache
	gamification GamificationService
}

// NewQuizService creates a new instance of quizService
func NewQuizService(
	repo domain.QuizRepository,
	quizCache QuizCacheService,
	resultCache SubmissionResultCache,
	gamification GamificationService,
) QuizService {
	return &quizService{
		repo:         repo,
		quizCache:    quizCache,
		resultCache:  resultCache,
		gamification: gamification,
	}
}

func (s *quizService) GetAuthoritativeQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	quiz, err := s.quizCache.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil || !quiz.IsPublished {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

// GetQuiz implements QuizService
func (s *quizService) GetQuiz(ctx context.Context, quizID string) (*dto.PublicQuizResponse, error) {
	quiz, err := s.GetAuthoritativeQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementAttempts(ctx, quizID); err != nil {
		logger.Get().Warn("Failed to increment quiz attempts", zap.String("quizID", quizID), zap.Error(err))
	}
	return dto.ToPublicQuiz(quiz), nil
}

// SubmitQuiz implements QuizService
func (s *quizService) SubmitQuiz(ctx context.Context, userID, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error) {
	if req == nil {
		req = &dto.SubmitQuizRequest{}
	}
	quiz, err := s.GetAuthoritativeQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	result, err := domain.Score(quiz, dto.ToDomainAnswers(req.Answers))
	if err != nil {
		return nil, err
	}
	resp := dto.NewQuizResultResponse(result)

	if userID == "" {
		metrics.QuizSubmitted(result.Passed, false)
		return resp, nil
	}

	submissionID := req.SubmissionID
	if submissionID == "" {
		submissionID = util.NewULID()
	}
	resp.SubmissionID = submissionID

	stored, recorded, err := s.gamification.RecordQuizOutcome(ctx, QuizOutcome{
		SubmissionID: submissionID,
		UserID:       userID,
		QuizID:       quiz.ID,
		Result:       result,
		TimeSpent:    req.TimeSpent,
	})
	if err != nil {
		return nil, err
	}
	if !recorded {
		return s.replay(ctx, stored, quiz.ID)
	}

	resp.Recorded = true
	if err := s.resultCache.Put(ctx, userID, submissionID, resp); err != nil {
		logger.Get().Warn("Failed to cache submission result", zap.String("submissionID", submissionID), zap.Error(err))
	}
	return resp, nil
}

// replay answers a repeated submission ID with the originally recorded result.
func (s *quizService) replay(ctx context.Context, stored *domain.QuizSubmission, quizID string) (*dto.QuizResultResponse, error) {
	if stored.QuizID != quizID {
		return nil, domain.NewSubmissionReusedError(stored.ID, quizID)
	}
	cached, err := s.resultCache.Get(ctx, stored.UserID, stored.ID)
	if err != nil {
		if !errors.Is(err, ErrSubmissionResultNotFound) {
			logger.Get().Warn("Failed to read cached submission result", zap.String("submissionID", stored.ID), zap.Error(err))
		}
		return dto.NewReplayedResultResponse(stored), nil
	}
	cached.Recorded = false
	cached.Duplicate = true
	return cached, nil
}
