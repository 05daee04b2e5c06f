package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/repository/models"
	"learnquest/internal/util"

	"github.com/jmoiron/sqlx"
)

const progressColumns = `id, user_id, course_id, percentage, is_completed, completed_at, time_spent, last_accessed_at, created_at`

type sqlxProgressRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLXProgressRepository creates a progress repository.
func NewSQLXProgressRepository(db *sqlx.DB) domain.ProgressRepository {
	return &sqlxProgressRepository{db: db, dialect: DialectFor(db.DriverName())}
}

func toDomainProgress(m *models.Progress, lessons []string) *domain.Progress {
	p := &domain.Progress{
		ID:               m.ID,
		UserID:           m.UserID,
		CourseID:         m.CourseID,
		CompletedLessons: lessons,
		Percentage:       m.Percentage,
		IsCompleted:      m.IsCompleted != 0,
		TimeSpent:        m.TimeSpent,
		LastAccessedAt:   m.LastAccessedAt,
		CreatedAt:        m.CreatedAt,
	}
	p.CompletedAt = util.TimePtr(m.CompletedAt)
	return p
}

// EnsureProgress creates the (user, course) record when missing and returns it.
// A concurrent creator loses the insert silently and reads the winner's row.
func (r *sqlxProgressRepository) EnsureProgress(ctx context.Context, userID, courseID string, now time.Time) (*domain.Progress, error) {
	exec := GetExecutor(ctx, r.db)
	insert := exec.Rebind(r.dialect.InsertIgnore("progress", []string{"user_id", "course_id"},
		[]string{"id", "user_id", "course_id", "percentage", "is_completed", "time_spent", "last_accessed_at", "created_at"}))
	if _, err := exec.ExecContext(ctx, insert, util.NewULID(), userID, courseID, 0, 0, 0, now, now); err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	p, err := r.selectProgress(ctx, exec, userID, courseID, "")
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("progress for user %s course %s missing after insert", userID, courseID)
	}
	return p, nil
}

// GetProgress returns nil when the user has not started the course.
func (r *sqlxProgressRepository) GetProgress(ctx context.Context, userID, courseID string) (*domain.Progress, error) {
	return r.selectProgress(ctx, GetExecutor(ctx, r.db), userID, courseID, "")
}

// LockProgress must run inside a transaction for the row lock to hold.
func (r *sqlxProgressRepository) LockProgress(ctx context.Context, userID, courseID string) (*domain.Progress, error) {
	return r.selectProgress(ctx, GetExecutor(ctx, r.db), userID, courseID, r.dialect.ForUpdate())
}

func (r *sqlxProgressRepository) selectProgress(ctx context.Context, exec DBTX, userID, courseID, suffix string) (*domain.Progress, error) {
	var m models.Progress
	query := exec.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE user_id = ? AND course_id = ?` + suffix)
	if err := exec.GetContext(ctx, &m, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	lessons, err := r.lessons(ctx, exec, m.ID)
	if err != nil {
		return nil, err
	}
	return toDomainProgress(&m, lessons), nil
}

func (r *sqlxProgressRepository) lessons(ctx context.Context, exec DBTX, progressID string) ([]string, error) {
	lessons := []string{}
	query := exec.Rebind(`SELECT lesson_id FROM progress_lessons WHERE progress_id = ? ORDER BY completed_at, lesson_id`)
	if err := exec.SelectContext(ctx, &lessons, query, progressID); err != nil {
		return nil, fmt.Errorf("failed to get completed lessons: %w", err)
	}
	return lessons, nil
}

// ListProgressByUser returns every course record of the user, most recent first.
func (r *sqlxProgressRepository) ListProgressByUser(ctx context.Context, userID string) ([]*domain.Progress, error) {
	exec := GetExecutor(ctx, r.db)
	var rows []models.Progress
	query := exec.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE user_id = ? ORDER BY last_accessed_at DESC, id`)
	if err := exec.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	result := make([]*domain.Progress, 0, len(rows))
	for i := range rows {
		lessons, err := r.lessons(ctx, exec, rows[i].ID)
		if err != nil {
			return nil, err
		}
		result = append(result, toDomainProgress(&rows[i], lessons))
	}
	return result, nil
}

func (r *sqlxProgressRepository) AddCompletedLesson(ctx context.Context, progressID, lessonID string, now time.Time) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	insert := exec.Rebind(r.dialect.InsertIgnore("progress_lessons", []string{"progress_id", "lesson_id"},
		[]string{"progress_id", "lesson_id", "completed_at"}))
	result, err := exec.ExecContext(ctx, insert, progressID, lessonID, now)
	if err != nil {
		return false, fmt.Errorf("failed to add completed lesson: %w", err)
	}
	return affectedOne(result)
}

func (r *sqlxProgressRepository) TouchProgress(ctx context.Context, progressID string, timeSpentDelta int, now time.Time) error {
	if timeSpentDelta < 0 {
		timeSpentDelta = 0
	}
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE progress SET time_spent = time_spent + ?, last_accessed_at = ? WHERE id = ?`)
	if _, err := exec.ExecContext(ctx, query, timeSpentDelta, now, progressID); err != nil {
		return fmt.Errorf("failed to touch progress: %w", err)
	}
	return nil
}

// UpdatePercentage only ever raises the stored value.
func (r *sqlxProgressRepository) UpdatePercentage(ctx context.Context, progressID string, percentage int) error {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE progress SET percentage = ? WHERE id = ? AND percentage < ?`)
	if _, err := exec.ExecContext(ctx, query, percentage, progressID, percentage); err != nil {
		return fmt.Errorf("failed to update progress percentage: %w", err)
	}
	return nil
}

// MarkCompleted flips is_completed once; later calls report false.
func (r *sqlxProgressRepository) MarkCompleted(ctx context.Context, progressID string, now time.Time) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE progress SET is_completed = 1, completed_at = ?, percentage = 100
		WHERE id = ? AND is_completed = 0`)
	result, err := exec.ExecContext(ctx, query, now, progressID)
	if err != nil {
		return false, fmt.Errorf("failed to mark progress completed: %w", err)
	}
	return affectedOne(result)
}
