package memory

import (
	"context"
	"sort"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/util"
)

func copyQuiz(q *domain.Quiz) *domain.Quiz {
	c := *q
	c.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]domain.Option(nil), question.Options...)
		c.Questions[i] = question
	}
	return &c
}

func (s *Store) GetQuizByID(_ context.Context, id string) (*domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, nil
	}
	return copyQuiz(q), nil
}

// SaveQuiz upserts the definition and keeps the stored attempt counter.
func (s *Store) SaveQuiz(_ context.Context, quiz *domain.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = util.NewULID()
	}
	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyQuiz(quiz)
	if existing, ok := s.quizzes[quiz.ID]; ok {
		c.Attempts = existing.Attempts
	}
	s.quizzes[quiz.ID] = c
	return nil
}

func (s *Store) IncrementAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	if !ok {
		return domain.NewQuizNotFoundError(id)
	}
	q.Attempts++
	return nil
}

func (s *Store) GetCourseByID(_ context.Context, id string) (*domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) SaveCourse(_ context.Context, course *domain.Course) error {
	if course.ID == "" {
		course.ID = util.NewULID()
	}
	now := time.Now()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *course
	s.courses[course.ID] = &cp
	return nil
}

// --- submissions ---

func (s *Store) RecordSubmission(_ context.Context, submission *domain.QuizSubmission) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{submission.UserID, submission.ID}
	if _, ok := s.submissions[key]; ok {
		return false, nil
	}
	cp := *submission
	s.submissions[key] = &cp
	return true, nil
}

func (s *Store) GetSubmission(_ context.Context, userID, id string) (*domain.QuizSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[[2]string{userID, id}]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (s *Store) ListSubmissionsByUser(_ context.Context, userID string, limit, offset int) ([]*domain.QuizSubmission, int, error) {
	s.mu.RLock()
	var all []*domain.QuizSubmission
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			cp := *sub
			all = append(all, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].SubmittedAt.Equal(all[j].SubmittedAt) {
			return all[i].SubmittedAt.After(all[j].SubmittedAt)
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	if offset >= total {
		return []*domain.QuizSubmission{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}
