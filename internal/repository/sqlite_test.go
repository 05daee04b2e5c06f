package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"learnquest/internal/database"
	"learnquest/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLite returns a migrated file-backed SQLite database.
func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ledger.db") + "?_pragma=foreign_keys(1)"

	migrationDB, err := database.OpenMigrationDB(database.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(database.DriverSQLite, migrationDB))
	migrationDB.Close()

	db, err := database.Connect(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, repo domain.UserRepository, id, wilaya string) {
	t.Helper()
	u := domain.NewUser("google-"+id, id+"@example.com")
	u.ID = id
	u.Wilaya = wilaya
	require.NoError(t, repo.CreateUser(context.Background(), u))
}

func TestSQLite_SubmissionLedgerIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewSQLXUserRepository(db)
	subs := NewSQLXSubmissionRepository(db)
	seedUser(t, users, "u1", "Alger")

	s := &domain.QuizSubmission{ID: "sub-1", UserID: "u1", QuizID: "q1", Score: 3, Total: 5, Answered: 5,
		Percentage: 60, Passed: true, XPEarned: 30, SubmittedAt: time.Now()}

	inserted, err := subs.RecordSubmission(ctx, s)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = subs.RecordSubmission(ctx, s)
	require.NoError(t, err)
	assert.False(t, inserted)

	// the same client key belongs to each user separately
	seedUser(t, users, "u2", "Oran")
	other := *s
	other.UserID = "u2"
	other.Score = 1
	inserted, err = subs.RecordSubmission(ctx, &other)
	require.NoError(t, err)
	assert.True(t, inserted)

	stored, err := subs.GetSubmission(ctx, "u1", "sub-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.Score)
	missing, err := subs.GetSubmission(ctx, "u3", "sub-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, total, err := subs.ListSubmissionsByUser(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.True(t, list[0].Passed)
	assert.Equal(t, 30, list[0].XPEarned)
}

func TestSQLite_UserCountersAndActivity(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewSQLXUserRepository(db)
	seedUser(t, users, "u1", "Alger")
	seedUser(t, users, "u2", "Alger")
	seedUser(t, users, "u3", "Oran")

	require.NoError(t, users.ApplyStatsDelta(ctx, "u1", domain.StatsDelta{XP: 120, QuizzesCompleted: 1, CorrectAnswers: 3, TotalAnswers: 5}))
	require.NoError(t, users.ApplyStatsDelta(ctx, "u2", domain.StatsDelta{XP: 40}))
	require.NoError(t, users.ApplyStatsDelta(ctx, "u3", domain.StatsDelta{XP: 200}))

	u, err := users.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 120, u.XP)
	assert.Equal(t, 60, u.Accuracy())

	ok, err := users.UpdateActivity(ctx, "u1", 1, time.Now(), u.ActivityVersion)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = users.UpdateActivity(ctx, "u1", 5, time.Now(), u.ActivityVersion)
	require.NoError(t, err)
	assert.False(t, ok, "stale version must not overwrite")

	added, err := users.AddBadge(ctx, "u1", "🏅 Starter")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = users.AddBadge(ctx, "u1", "🏅 Starter")
	require.NoError(t, err)
	assert.False(t, added)

	u, err = users.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Streak)
	assert.NotNil(t, u.LastActiveAt)
	assert.Equal(t, []string{"🏅 Starter"}, u.Badges)

	board, err := users.ListLeaderboard(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "u3", board[0].ID)
	assert.Equal(t, "u1", board[1].ID)

	standings, err := users.ListWilayaStandings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, domain.WilayaStanding{Wilaya: "Oran", TotalXP: 200, StudentCount: 1}, standings[0])
	assert.Equal(t, domain.WilayaStanding{Wilaya: "Alger", TotalXP: 160, StudentCount: 2}, standings[1])
}

func TestSQLite_ProgressLessonsAndCompletion(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewSQLXUserRepository(db)
	progress := NewSQLXProgressRepository(db)
	seedUser(t, users, "u1", "")
	now := time.Now()

	p, err := progress.EnsureProgress(ctx, "u1", "c1", now)
	require.NoError(t, err)
	again, err := progress.EnsureProgress(ctx, "u1", "c1", now)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	added, err := progress.AddCompletedLesson(ctx, p.ID, "l1", now)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = progress.AddCompletedLesson(ctx, p.ID, "l1", now)
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, progress.TouchProgress(ctx, p.ID, 90, now))
	require.NoError(t, progress.UpdatePercentage(ctx, p.ID, 50))
	require.NoError(t, progress.UpdatePercentage(ctx, p.ID, 20))

	got, err := progress.GetProgress(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, got.CompletedLessons)
	assert.Equal(t, 50, got.Percentage)
	assert.Equal(t, 90, got.TimeSpent)

	flipped, err := progress.MarkCompleted(ctx, p.ID, now)
	require.NoError(t, err)
	assert.True(t, flipped)
	flipped, err = progress.MarkCompleted(ctx, p.ID, now)
	require.NoError(t, err)
	assert.False(t, flipped)

	all, err := progress.ListProgressByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsCompleted)
	assert.Equal(t, 100, all[0].Percentage)
	assert.NotNil(t, all[0].CompletedAt)
}

func TestSQLite_RewardClaimLimit(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewSQLXUserRepository(db)
	rewards := NewSQLXRewardRepository(db)
	seedUser(t, users, "u1", "")
	seedUser(t, users, "u2", "")

	r := &domain.Reward{ID: "r1", Title: "Early Bird", Icon: "🐦", MaxClaims: 1, IsActive: true}
	require.NoError(t, rewards.SaveReward(ctx, r))

	outcome, err := rewards.AddClaim(ctx, "r1", "u1", true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimRecorded, outcome)

	outcome, err = rewards.AddClaim(ctx, "r1", "u1", true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimDuplicate, outcome)

	outcome, err = rewards.AddClaim(ctx, "r1", "u2", true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimLimitReached, outcome)

	got, err := rewards.GetRewardByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalClaimed)
	assert.Equal(t, []string{"u1"}, got.ClaimedBy)

	// a save keeps claim bookkeeping
	r.Title = "Early Bird II"
	require.NoError(t, rewards.SaveReward(ctx, r))
	got, err = rewards.GetRewardByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Early Bird II", got.Title)
	assert.Equal(t, 1, got.TotalClaimed)
}

func TestSQLite_QuizRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	quizzes := NewQuizDatabaseAdapter(db)

	q := domain.NewQuiz("q1", "Fractions", []domain.Question{
		{ID: "a", Text: "1/2 + 1/2?", Options: []domain.Option{{Text: "1", IsCorrect: true}, {Text: "2"}}, Points: 10},
	})
	q.QuestionTimeLimit = 45 * time.Second
	require.NoError(t, quizzes.SaveQuiz(ctx, q))
	require.NoError(t, quizzes.IncrementAttempts(ctx, "q1"))

	got, err := quizzes.GetQuizByID(ctx, "q1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Fractions", got.Title)
	assert.Equal(t, 45*time.Second, got.QuestionTimeLimit)
	assert.Equal(t, 1, got.Attempts)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, 0, got.Questions[0].CorrectOption())

	missing, err := quizzes.GetQuizByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
