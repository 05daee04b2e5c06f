package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"learnquest/internal/domain"
	"learnquest/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

var submissionColumns = []string{"id", "user_id", "quiz_id", "score", "total", "answered",
	"percentage", "passed", "xp_earned", "time_spent", "submitted_at"}

const submissionSelect = `SELECT id, user_id, quiz_id, score, total, answered, percentage, passed,
	xp_earned, time_spent, submitted_at FROM quiz_submissions`

type sqlxSubmissionRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLXSubmissionRepository creates the quiz submission ledger.
func NewSQLXSubmissionRepository(db *sqlx.DB) domain.SubmissionRepository {
	return &sqlxSubmissionRepository{db: db, dialect: DialectFor(db.DriverName())}
}

func toDomainSubmission(m *models.QuizSubmission) *domain.QuizSubmission {
	return &domain.QuizSubmission{
		ID:          m.ID,
		UserID:      m.UserID,
		QuizID:      m.QuizID,
		Score:       m.Score,
		Total:       m.Total,
		Answered:    m.Answered,
		Percentage:  m.Percentage,
		Passed:      m.Passed != 0,
		XPEarned:    m.XPEarned,
		TimeSpent:   m.TimeSpent,
		SubmittedAt: m.SubmittedAt,
	}
}

// RecordSubmission inserts the submission once per (user, ID). A replay returns
// false and leaves the stored row untouched.
func (r *sqlxSubmissionRepository) RecordSubmission(ctx context.Context, s *domain.QuizSubmission) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	insert := exec.Rebind(r.dialect.InsertIgnore("quiz_submissions", []string{"user_id", "id"}, submissionColumns))
	result, err := exec.ExecContext(ctx, insert,
		s.ID, s.UserID, s.QuizID, s.Score, s.Total, s.Answered, s.Percentage, boolToInt(s.Passed),
		s.XPEarned, s.TimeSpent, s.SubmittedAt)
	if err != nil {
		return false, fmt.Errorf("failed to record submission: %w", err)
	}
	return affectedOne(result)
}

func (r *sqlxSubmissionRepository) GetSubmission(ctx context.Context, userID, id string) (*domain.QuizSubmission, error) {
	exec := GetExecutor(ctx, r.db)
	var m models.QuizSubmission
	if err := exec.GetContext(ctx, &m, exec.Rebind(submissionSelect+` WHERE user_id = ? AND id = ?`), userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return toDomainSubmission(&m), nil
}

// ListSubmissionsByUser returns one page of the user's history, newest first, and the total count.
func (r *sqlxSubmissionRepository) ListSubmissionsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.QuizSubmission, int, error) {
	exec := GetExecutor(ctx, r.db)

	var total int
	if err := exec.GetContext(ctx, &total, exec.Rebind(`SELECT COUNT(*) FROM quiz_submissions WHERE user_id = ?`), userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	var rows []models.QuizSubmission
	query := r.dialect.Paginate(submissionSelect+` WHERE user_id = ? ORDER BY submitted_at DESC, id`, limit, offset)
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(query), userID); err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	result := make([]*domain.QuizSubmission, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainSubmission(&rows[i]))
	}
	return result, total, nil
}
