package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLXProgressRepository_EnsureProgress(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO progress (id, user_id, course_id`)+`.*`+regexp.QuoteMeta(`ON CONFLICT (user_id, course_id) DO NOTHING`)).
		WithArgs(sqlmock.AnyArg(), "u1", "c1", 0, 0, 0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM progress WHERE user_id = \? AND course_id = \?$`).
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "percentage", "is_completed", "time_spent", "last_accessed_at", "created_at"}).
			AddRow("p1", "u1", "c1", 40, 0, 300, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT lesson_id FROM progress_lessons WHERE progress_id = ?`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"lesson_id"}).AddRow("l1").AddRow("l2"))

	p, err := repo.EnsureProgress(context.Background(), "u1", "c1", now)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, []string{"l1", "l2"}, p.CompletedLessons)
	assert.Equal(t, 40, p.Percentage)
	assert.False(t, p.IsCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_LockProgressUsesRowLock(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	mock.ExpectQuery(`FROM progress WHERE user_id = \? AND course_id = \? FOR UPDATE`).
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.LockProgress(context.Background(), "u1", "c1")
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_UpdatePercentageNeverLowers(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE progress SET percentage = ? WHERE id = ? AND percentage < ?`)).
		WithArgs(60, "p1", 60).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdatePercentage(context.Background(), "p1", 60))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_MarkCompletedOnce(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	now := time.Now()
	query := regexp.QuoteMeta(`WHERE id = ? AND is_completed = 0`)
	mock.ExpectExec(query).WithArgs(now, "p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(now, "p1").WillReturnResult(sqlmock.NewResult(0, 0))

	flipped, err := repo.MarkCompleted(context.Background(), "p1", now)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.MarkCompleted(context.Background(), "p1", now)
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
