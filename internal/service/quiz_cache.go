package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"learnquest/internal/cache"
	"learnquest/internal/domain"
	"learnquest/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuizCacheService serves authoritative quiz definitions. The cached copy
// includes the answer key and never leaves the server.
type QuizCacheService interface {
	// GetQuiz returns (nil, nil) when the quiz does not exist.
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

type quizCacheService struct {
	repo  domain.QuizRepository
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewQuizCacheService wraps the repository. A nil cache reads straight through.
func NewQuizCacheService(repo domain.QuizRepository, c domain.Cache, ttl time.Duration) QuizCacheService {
	return &quizCacheService{repo: repo, cache: c, ttl: ttl}
}

func (s *quizCacheService) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	key := cache.QuizDefinitionKey(quizID)
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var quiz domain.Quiz
			if jsonErr := json.Unmarshal([]byte(data), &quiz); jsonErr == nil {
				return &quiz, nil
			}
			logger.Get().Warn("Discarding undecodable cached quiz", zap.String("key", key))
		case !errors.Is(err, domain.ErrCacheMiss):
			logger.Get().Warn("Quiz cache read failed, falling back to repository", zap.String("key", key), zap.Error(err))
		}
	}

	// Concurrent misses for the same quiz share one repository read.
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		quiz, err := s.repo.GetQuizByID(ctx, quizID)
		if err != nil {
			return nil, domain.NewInternalError("failed to load quiz", err)
		}
		if quiz == nil {
			return nil, nil
		}
		s.store(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil || v == nil {
		return nil, err
	}
	return copyQuiz(v.(*domain.Quiz)), nil
}

func (s *quizCacheService) store(ctx context.Context, key string, quiz *domain.Quiz) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		logger.Get().Warn("Failed to marshal quiz for caching", zap.String("quizID", quiz.ID), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Warn("Failed to cache quiz", zap.String("key", key), zap.Error(err))
	}
}

func (s *quizCacheService) Invalidate(ctx context.Context, quizID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, cache.QuizDefinitionKey(quizID)); err != nil {
		return domain.NewInternalError("failed to invalidate quiz cache", err)
	}
	return nil
}

// copyQuiz detaches callers sharing a singleflight result.
func copyQuiz(q *domain.Quiz) *domain.Quiz {
	c := *q
	c.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]domain.Option(nil), question.Options...)
		c.Questions[i] = question
	}
	return &c
}
