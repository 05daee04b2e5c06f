package service

import (
	"context"
	"strings"
	"time"

	"learnquest/internal/config"
	"learnquest/internal/domain"
	"learnquest/internal/logger"
	"learnquest/internal/metrics"

	"go.uber.org/zap"
)

// ProgressService records lesson completions and course completion rewards.
type ProgressService interface {
	RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID string, timeSpent int) (*domain.LessonCompletion, error)
	GetMyProgress(ctx context.Context, userID string) ([]*domain.Progress, error)
}

type progressService struct {
	userRepo     domain.UserRepository
	courseRepo   domain.CourseRepository
	progressRepo domain.ProgressRepository
	txManager    domain.TransactionManager
	publisher    domain.EventPublisher
	lessonXP     int
	courseXP     int
	now          func() time.Time
}

// NewProgressService creates a new ProgressService.
func NewProgressService(
	userRepo domain.UserRepository,
	courseRepo domain.CourseRepository,
	progressRepo domain.ProgressRepository,
	txManager domain.TransactionManager,
	publisher domain.EventPublisher,
	cfg config.GamificationConfig,
) ProgressService {
	lessonXP := cfg.LessonXP
	if lessonXP < 0 {
		lessonXP = 0
	}
	courseXP := cfg.CourseXPDefault
	if courseXP <= 0 {
		courseXP = domain.DefaultCourseXP
	}
	return &progressService{
		userRepo:     userRepo,
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		txManager:    txManager,
		publisher:    publisher,
		lessonXP:     lessonXP,
		courseXP:     courseXP,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func validateLessonCompletion(courseID, lessonID string, timeSpent int) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(courseID) == "" {
		errs = append(errs, domain.NewMissingFieldError("courseId"))
	}
	if strings.TrimSpace(lessonID) == "" {
		errs = append(errs, domain.NewMissingFieldError("lessonId"))
	}
	if timeSpent < 0 {
		errs = append(errs, domain.ValidationError{Field: "timeSpent", Message: "must not be negative", Value: timeSpent})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RecordLessonCompletion adds the lesson and credits lesson XP in one
// transaction, then recomputes the percentage against the course and pays
// the course reward at most once in a second transaction. When the course
// cannot be read the lesson stays recorded and the percentage is untouched.
func (s *progressService) RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID string, timeSpent int) (*domain.LessonCompletion, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	if err := validateLessonCompletion(courseID, lessonID, timeSpent); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}

	now := s.now()
	result := &domain.LessonCompletion{}
	var progressID string

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.progressRepo.EnsureProgress(txCtx, userID, courseID, now)
		if err != nil {
			return err
		}
		progressID = p.ID
		added, err := s.progressRepo.AddCompletedLesson(txCtx, p.ID, lessonID, now)
		if err != nil {
			return err
		}
		result.LessonAdded = added
		if err := s.progressRepo.TouchProgress(txCtx, p.ID, timeSpent, now); err != nil {
			return err
		}
		delta := domain.StatsDelta{TimeSpent: timeSpent}
		if added {
			delta.XP = s.lessonXP
		}
		return s.userRepo.ApplyStatsDelta(txCtx, userID, delta)
	})
	if err != nil {
		return nil, asDomainError("failed to record lesson completion", err)
	}
	if result.LessonAdded {
		result.XPAwarded = s.lessonXP
		metrics.XPAwarded(XPSourceLesson, s.lessonXP)
	}
	metrics.LessonCompleted(result.LessonAdded)

	var courseXP int
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	switch {
	case err != nil:
		logger.Get().Warn("Course lookup failed, lesson recorded without percentage update",
			zap.String("courseID", courseID), zap.Error(err))
	case course == nil:
		logger.Get().Warn("Course not found, lesson recorded without percentage update", zap.String("courseID", courseID))
	default:
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			p, err := s.progressRepo.LockProgress(txCtx, userID, courseID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.NewNotFoundError("progress not found for course: " + courseID)
			}
			pct := domain.CompletionPercentage(len(p.CompletedLessons), course.TotalLessons)
			if err := s.progressRepo.UpdatePercentage(txCtx, p.ID, pct); err != nil {
				return err
			}
			if pct < 100 {
				return nil
			}
			flipped, err := s.progressRepo.MarkCompleted(txCtx, p.ID, now)
			if err != nil || !flipped {
				return err
			}
			result.CourseCompleted = true
			courseXP = course.CompletionXP(s.courseXP)
			return s.userRepo.ApplyStatsDelta(txCtx, userID, domain.StatsDelta{XP: courseXP, CoursesCompleted: 1})
		})
		if err != nil {
			return nil, asDomainError("failed to update course progress", err)
		}
		if result.CourseCompleted {
			result.XPAwarded += courseXP
			metrics.CourseCompleted()
			metrics.XPAwarded(XPSourceCourse, courseXP)
		}
	}

	progress, err := s.progressRepo.GetProgress(ctx, userID, courseID)
	if err != nil {
		return nil, domain.NewInternalError("failed to reload progress", err)
	}
	if progress == nil {
		return nil, domain.NewNotFoundError("progress not found: " + progressID)
	}
	result.Progress = progress

	if result.LessonAdded {
		publish(ctx, s.publisher, domain.NewEvent(domain.EventLessonCompleted, userID, map[string]interface{}{
			"courseId":   courseID,
			"lessonId":   lessonID,
			"percentage": progress.Percentage,
			"xpAwarded":  s.lessonXP,
		}))
	}
	if result.CourseCompleted {
		publish(ctx, s.publisher, domain.NewEvent(domain.EventCourseCompleted, userID, map[string]interface{}{
			"courseId":  courseID,
			"xpAwarded": courseXP,
		}))
	}
	return result, nil
}

func (s *progressService) GetMyProgress(ctx context.Context, userID string) ([]*domain.Progress, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	list, err := s.progressRepo.ListProgressByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list progress", err)
	}
	return list, nil
}
