package domain

import (
	"context"
	"time"
)

// Repositories return (nil, nil) for absent records; services decide which
// error to raise.

// TransactionManager runs fn inside a single storage transaction carried by ctx.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuizRepository is the quiz catalog.
type QuizRepository interface {
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
	SaveQuiz(ctx context.Context, quiz *Quiz) error
	IncrementAttempts(ctx context.Context, id string) error
}

// CourseRepository exposes the course facts the progress ledger depends on.
type CourseRepository interface {
	GetCourseByID(ctx context.Context, id string) (*Course, error)
	SaveCourse(ctx context.Context, course *Course) error
}

// UserRepository stores users and their gamification counters. Counter
// updates are single conditional statements so concurrent callers never lose
// increments.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	// ApplyStatsDelta adds every field of delta to the user's counters.
	ApplyStatsDelta(ctx context.Context, userID string, delta StatsDelta) error
	// UpdateActivity writes the streak only when the stored activity version
	// still equals expectedVersion; false means another writer got there first.
	UpdateActivity(ctx context.Context, userID string, streak int, lastActiveAt time.Time, expectedVersion int64) (bool, error)
	// AddBadge inserts the badge when absent and reports whether it was added.
	AddBadge(ctx context.Context, userID, badge string) (bool, error)
	GetBadges(ctx context.Context, userID string) ([]string, error)

	ListLeaderboard(ctx context.Context, wilaya string, limit int) ([]*User, error)
	ListWilayaStandings(ctx context.Context, limit int) ([]WilayaStanding, error)
}

// ProgressRepository stores per (user, course) progress records.
type ProgressRepository interface {
	// EnsureProgress returns the record, creating an empty one when absent.
	EnsureProgress(ctx context.Context, userID, courseID string, now time.Time) (*Progress, error)
	GetProgress(ctx context.Context, userID, courseID string) (*Progress, error)
	// LockProgress reads the record and holds a row lock for the rest of the transaction.
	LockProgress(ctx context.Context, userID, courseID string) (*Progress, error)
	ListProgressByUser(ctx context.Context, userID string) ([]*Progress, error)

	// AddCompletedLesson inserts the lesson when absent and reports whether it was added.
	AddCompletedLesson(ctx context.Context, progressID, lessonID string, now time.Time) (bool, error)
	TouchProgress(ctx context.Context, progressID string, timeSpentDelta int, now time.Time) error
	// UpdatePercentage raises the percentage; it never lowers it.
	UpdatePercentage(ctx context.Context, progressID string, percentage int) error
	// MarkCompleted flips isCompleted false->true and reports whether this call flipped it.
	MarkCompleted(ctx context.Context, progressID string, now time.Time) (bool, error)
}

// SubmissionRepository is the exactly-once ledger of applied quiz submissions.
type SubmissionRepository interface {
	// RecordSubmission inserts the submission unless the user already has one
	// with the same ID and reports whether it was inserted.
	RecordSubmission(ctx context.Context, submission *QuizSubmission) (bool, error)
	// GetSubmission looks a submission up by its owner and ID.
	GetSubmission(ctx context.Context, userID, id string) (*QuizSubmission, error)
	ListSubmissionsByUser(ctx context.Context, userID string, limit, offset int) ([]*QuizSubmission, int, error)
}

// RewardRepository stores rewards and their claim sets.
type RewardRepository interface {
	GetRewardByID(ctx context.Context, id string) (*Reward, error)
	ListRewards(ctx context.Context, activeOnly bool) ([]*Reward, error)
	SaveReward(ctx context.Context, reward *Reward) error
	// AddClaim records userID in the reward's claim set and increments
	// totalClaimed in one step. enforceLimit applies maxClaims.
	AddClaim(ctx context.Context, rewardID, userID string, enforceLimit bool, now time.Time) (ClaimOutcome, error)
}
