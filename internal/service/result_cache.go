package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnquest/internal/cache"
	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"

	"go.uber.org/zap"
)

// ErrSubmissionResultNotFound is returned when a cached result is not found.
var ErrSubmissionResultNotFound = errors.New("submission result not found in cache")

// SubmissionResultCache keeps the graded response of a recorded submission so
// that a replayed submission id gets the original result back. Entries are
// scoped to the submitting user.
type SubmissionResultCache interface {
	Put(ctx context.Context, userID, submissionID string, result *dto.QuizResultResponse) error
	Get(ctx context.Context, userID, submissionID string) (*dto.QuizResultResponse, error)
}

type submissionResultCacheImpl struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewSubmissionResultCache creates the cache. A nil cache yields a no-op implementation.
func NewSubmissionResultCache(c domain.Cache, ttl time.Duration) SubmissionResultCache {
	if c == nil {
		logger.Get().Warn("SubmissionResultCache initialized with nil cache. Service will be no-op.")
		return &noopSubmissionResultCache{}
	}
	return &submissionResultCacheImpl{
		cache: c,
		ttl:   ttl,
	}
}

// Put stores the graded result for a submission.
func (s *submissionResultCacheImpl) Put(ctx context.Context, userID, submissionID string, result *dto.QuizResultResponse) error {
	if result == nil {
		return domain.NewInvalidInputError("cannot cache nil result")
	}

	key := cache.SubmissionResultKey(userID, submissionID)
	dataBytes, err := json.Marshal(result)
	if err != nil {
		logger.Get().Error("Failed to marshal submission result for caching", zap.Error(err), zap.String("submissionID", submissionID))
		return domain.NewInternalError("failed to marshal result for caching", err)
	}

	if err := s.cache.Set(ctx, key, string(dataBytes), s.ttl); err != nil {
		logger.Get().Error("Failed to cache submission result", zap.Error(err), zap.String("key", key))
		return domain.NewInternalError(fmt.Sprintf("failed to set submission result to cache for key %s", key), err)
	}
	logger.Get().Debug("Successfully cached submission result", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}

// Get retrieves the graded result for a submission.
func (s *submissionResultCacheImpl) Get(ctx context.Context, userID, submissionID string) (*dto.QuizResultResponse, error) {
	key := cache.SubmissionResultKey(userID, submissionID)
	dataString, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Debug("Submission result cache miss", zap.String("key", key))
			return nil, ErrSubmissionResultNotFound
		}
		logger.Get().Error("Failed to get submission result from cache", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError(fmt.Sprintf("failed to get submission result from cache for key %s", key), err)
	}

	if dataString == "" {
		return nil, ErrSubmissionResultNotFound
	}

	var result dto.QuizResultResponse
	if err := json.Unmarshal([]byte(dataString), &result); err != nil {
		logger.Get().Error("Failed to unmarshal submission result from cache", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError(fmt.Sprintf("failed to unmarshal result from cache for key %s", key), err)
	}
	return &result, nil
}

// noopSubmissionResultCache is used when caching is disabled.
type noopSubmissionResultCache struct{}

func (s *noopSubmissionResultCache) Put(ctx context.Context, userID, submissionID string, result *dto.QuizResultResponse) error {
	return nil
}

func (s *noopSubmissionResultCache) Get(ctx context.Context, userID, submissionID string) (*dto.QuizResultResponse, error) {
	return nil, ErrSubmissionResultNotFound
}
