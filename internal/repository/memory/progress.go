package memory

import (
	"context"
	"sort"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/util"
)

func copyProgress(p *domain.Progress) *domain.Progress {
	c := *p
	c.CompletedLessons = cloneStrings(p.CompletedLessons)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (s *Store) EnsureProgress(_ context.Context, userID, courseID string, now time.Time) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{userID, courseID}
	if id, ok := s.progressKey[key]; ok {
		return copyProgress(s.progress[id]), nil
	}
	p := &domain.Progress{
		ID:               util.NewULID(),
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []string{},
		LastAccessedAt:   now,
		CreatedAt:        now,
	}
	s.progress[p.ID] = p
	s.progressKey[key] = p.ID
	return copyProgress(p), nil
}

func (s *Store) GetProgress(_ context.Context, userID, courseID string) (*domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.progressKey[[2]string{userID, courseID}]
	if !ok {
		return nil, nil
	}
	return copyProgress(s.progress[id]), nil
}

// LockProgress relies on WithTransaction serialising writers.
func (s *Store) LockProgress(ctx context.Context, userID, courseID string) (*domain.Progress, error) {
	return s.GetProgress(ctx, userID, courseID)
}

func (s *Store) ListProgressByUser(_ context.Context, userID string) ([]*domain.Progress, error) {
	s.mu.RLock()
	out := []*domain.Progress{}
	for _, p := range s.progress {
		if p.UserID == userID {
			out = append(out, copyProgress(p))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAccessedAt.Equal(out[j].LastAccessedAt) {
			return out[i].LastAccessedAt.After(out[j].LastAccessedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) AddCompletedLesson(_ context.Context, progressID, lessonID string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressID]
	if !ok {
		return false, domain.NewNotFoundError("progress not found: " + progressID)
	}
	if p.HasLesson(lessonID) {
		return false, nil
	}
	p.CompletedLessons = append(p.CompletedLessons, lessonID)
	return true, nil
}

func (s *Store) TouchProgress(_ context.Context, progressID string, timeSpentDelta int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressID]
	if !ok {
		return domain.NewNotFoundError("progress not found: " + progressID)
	}
	if timeSpentDelta > 0 {
		p.TimeSpent += timeSpentDelta
	}
	p.LastAccessedAt = now
	return nil
}

func (s *Store) UpdatePercentage(_ context.Context, progressID string, percentage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[progressID]; ok && percentage > p.Percentage {
		p.Percentage = percentage
	}
	return nil
}

func (s *Store) MarkCompleted(_ context.Context, progressID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressID]
	if !ok || p.IsCompleted {
		return false, nil
	}
	p.IsCompleted = true
	p.Percentage = 100
	p.CompletedAt = &now
	return true, nil
}
