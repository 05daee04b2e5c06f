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

const quizColumns = `id, title, description, course_id, subject, quiz_level, questions_json,
	question_time_limit, passing_score, xp_reward, attempts, is_published, created_at, updated_at`

// QuizDatabaseAdapter implements domain.QuizRepository over the quizzes table.
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new quiz repository.
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	questions := []domain.Question(m.Questions)
	if questions == nil {
		questions = []domain.Question{}
	}
	return &domain.Quiz{
		ID:                m.ID,
		Title:             m.Title,
		Description:       m.Description.String,
		CourseID:          m.CourseID.String,
		Subject:           m.Subject.String,
		Level:             m.Level.String,
		Questions:         questions,
		QuestionTimeLimit: time.Duration(m.QuestionTimeLimit) * time.Second,
		PassingScore:      m.PassingScore,
		XPReward:          m.XPReward,
		Attempts:          m.Attempts,
		IsPublished:       m.IsPublished != 0,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromDomainQuiz(q *domain.Quiz) *models.Quiz {
	if q == nil {
		return nil
	}
	return &models.Quiz{
		ID:                q.ID,
		Title:             q.Title,
		Description:       util.NullString(q.Description),
		CourseID:          util.NullString(q.CourseID),
		Subject:           util.NullString(q.Subject),
		Level:             util.NullString(q.Level),
		Questions:         models.QuestionList(q.Questions),
		QuestionTimeLimit: int(q.TimeLimit() / time.Second),
		PassingScore:      q.PassingScore,
		XPReward:          q.XPReward,
		Attempts:          q.Attempts,
		IsPublished:       boolToInt(q.IsPublished),
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

// GetQuizByID returns the quiz with its full answer key, or nil when absent.
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)
	var m models.Quiz
	query := exec.Rebind(`SELECT ` + quizColumns + ` FROM quizzes WHERE id = ?`)
	if err := exec.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}
	return toDomainQuiz(&m), nil
}

// SaveQuiz updates the quiz definition, inserting it when it does not exist yet.
// The attempts counter is left untouched on update.
func (a *QuizDatabaseAdapter) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = util.NewULID()
	}
	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now
	m := fromDomainQuiz(quiz)

	exec := GetExecutor(ctx, a.db)
	update := exec.Rebind(`UPDATE quizzes SET title = ?, description = ?, course_id = ?, subject = ?,
		quiz_level = ?, questions_json = ?, question_time_limit = ?, passing_score = ?, xp_reward = ?,
		is_published = ?, updated_at = ? WHERE id = ?`)
	result, err := exec.ExecContext(ctx, update,
		m.Title, m.Description, m.CourseID, m.Subject, m.Level, m.Questions, m.QuestionTimeLimit,
		m.PassingScore, m.XPReward, m.IsPublished, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	if updated, err := affectedOne(result); err != nil || updated {
		return err
	}

	insert := exec.Rebind(`INSERT INTO quizzes (` + quizColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := exec.ExecContext(ctx, insert,
		m.ID, m.Title, m.Description, m.CourseID, m.Subject, m.Level, m.Questions, m.QuestionTimeLimit,
		m.PassingScore, m.XPReward, m.Attempts, m.IsPublished, m.CreatedAt, m.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}
	return nil
}

// IncrementAttempts bumps the quiz's attempt counter.
func (a *QuizDatabaseAdapter) IncrementAttempts(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, a.db)
	result, err := exec.ExecContext(ctx, exec.Rebind(`UPDATE quizzes SET attempts = attempts + 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to increment quiz attempts: %w", err)
	}
	updated, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NewQuizNotFoundError(id)
	}
	return nil
}
