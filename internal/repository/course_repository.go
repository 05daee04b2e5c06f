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

type sqlxCourseRepository struct {
	db *sqlx.DB
}

// NewSQLXCourseRepository creates a course repository.
func NewSQLXCourseRepository(db *sqlx.DB) domain.CourseRepository {
	return &sqlxCourseRepository{db: db}
}

func (r *sqlxCourseRepository) GetCourseByID(ctx context.Context, id string) (*domain.Course, error) {
	exec := GetExecutor(ctx, r.db)
	var m models.Course
	query := exec.Rebind(`SELECT id, title, total_lessons, xp_reward, is_published, created_at, updated_at
		FROM courses WHERE id = ?`)
	if err := exec.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}
	return &domain.Course{
		ID:           m.ID,
		Title:        m.Title,
		TotalLessons: m.TotalLessons,
		XPReward:     m.XPReward,
		IsPublished:  m.IsPublished != 0,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// SaveCourse upserts the course catalogue entry.
func (r *sqlxCourseRepository) SaveCourse(ctx context.Context, course *domain.Course) error {
	if course.ID == "" {
		course.ID = util.NewULID()
	}
	now := time.Now()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	exec := GetExecutor(ctx, r.db)
	update := exec.Rebind(`UPDATE courses SET title = ?, total_lessons = ?, xp_reward = ?, is_published = ?,
		updated_at = ? WHERE id = ?`)
	result, err := exec.ExecContext(ctx, update,
		course.Title, course.TotalLessons, course.XPReward, boolToInt(course.IsPublished), course.UpdatedAt, course.ID)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	if updated, err := affectedOne(result); err != nil || updated {
		return err
	}

	insert := exec.Rebind(`INSERT INTO courses (id, title, total_lessons, xp_reward, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := exec.ExecContext(ctx, insert,
		course.ID, course.Title, course.TotalLessons, course.XPReward, boolToInt(course.IsPublished),
		course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}
