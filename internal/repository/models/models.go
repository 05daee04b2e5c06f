package models

import (
	"database/sql"
	"time"
)

// Column tags are lower case; the Oracle connection maps them to upper case.

// User is a row of the users table.
type User struct {
	ID                string         `db:"id"`
	GoogleID          string         `db:"google_id"`
	Email             string         `db:"email"`
	Name              sql.NullString `db:"name"`
	ProfilePictureURL sql.NullString `db:"profile_picture_url"`
	Role              string         `db:"role"`
	Wilaya            sql.NullString `db:"wilaya"`
	IsActive          int            `db:"is_active"`
	XP                int            `db:"xp"`
	Streak            int            `db:"streak"`
	LastActiveAt      sql.NullTime   `db:"last_active_at"`
	ActivityVersion   int64          `db:"activity_version"`
	CoursesCompleted  int            `db:"courses_completed"`
	QuizzesCompleted  int            `db:"quizzes_completed"`
	CorrectAnswers    int            `db:"correct_answers"`
	TotalAnswers      int            `db:"total_answers"`
	TotalTimeSpent    int            `db:"total_time_spent"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// WilayaStanding is an aggregate row of users grouped by wilaya.
type WilayaStanding struct {
	Wilaya       string `db:"wilaya"`
	TotalXP      int    `db:"total_xp"`
	StudentCount int    `db:"student_count"`
}

// Course is a row of the courses table.
type Course struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	TotalLessons int       `db:"total_lessons"`
	XPReward     int       `db:"xp_reward"`
	IsPublished  int       `db:"is_published"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Quiz is a row of the quizzes table. QuestionTimeLimit is in seconds.
type Quiz struct {
	ID                string         `db:"id"`
	Title             string         `db:"title"`
	Description       sql.NullString `db:"description"`
	CourseID          sql.NullString `db:"course_id"`
	Subject           sql.NullString `db:"subject"`
	Level             sql.NullString `db:"quiz_level"`
	Questions         QuestionList   `db:"questions_json"`
	QuestionTimeLimit int            `db:"question_time_limit"`
	PassingScore      int            `db:"passing_score"`
	XPReward          int            `db:"xp_reward"`
	Attempts          int            `db:"attempts"`
	IsPublished       int            `db:"is_published"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// QuizSubmission is a row of the quiz_submissions ledger.
type QuizSubmission struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	QuizID      string    `db:"quiz_id"`
	Score       int       `db:"score"`
	Total       int       `db:"total"`
	Answered    int       `db:"answered"`
	Percentage  int       `db:"percentage"`
	Passed      int       `db:"passed"`
	XPEarned    int       `db:"xp_earned"`
	TimeSpent   int       `db:"time_spent"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// Progress is a row of the progress table. Completed lessons live in progress_lessons.
type Progress struct {
	ID             string       `db:"id"`
	UserID         string       `db:"user_id"`
	CourseID       string       `db:"course_id"`
	Percentage     int          `db:"percentage"`
	IsCompleted    int          `db:"is_completed"`
	CompletedAt    sql.NullTime `db:"completed_at"`
	TimeSpent      int          `db:"time_spent"`
	LastAccessedAt time.Time    `db:"last_accessed_at"`
	CreatedAt      time.Time    `db:"created_at"`
}

// Reward is a row of the rewards table.
type Reward struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  sql.NullString `db:"description"`
	Icon         sql.NullString `db:"icon"`
	Type         sql.NullString `db:"reward_type"`
	MinXP        int            `db:"min_xp"`
	MinStreak    int            `db:"min_streak"`
	MinCourses   int            `db:"min_courses"`
	MinQuizzes   int            `db:"min_quizzes"`
	MaxClaims    int            `db:"max_claims"`
	TotalClaimed int            `db:"total_claimed"`
	IsActive     int            `db:"is_active"`
	ExpiresAt    sql.NullTime   `db:"expires_at"`
	CreatedAt    time.Time      `db:"created_at"`
}
