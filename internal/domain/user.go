package domain

import (
	"time"
)

// Roles recognised by the platform.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a domain user object together with its gamification counters.
type User struct {
	ID                string
	GoogleID          string
	Email             string
	Name              string
	ProfilePictureURL string
	Role              string
	Wilaya            string
	IsActive          bool

	XP               int
	Streak           int
	LastActiveAt     *time.Time
	ActivityVersion  int64
	CoursesCompleted int
	QuizzesCompleted int
	CorrectAnswers   int
	TotalAnswers     int
	TotalTimeSpent   int
	Badges           []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a new active student
func NewUser(googleID, email string) *User {
	now := time.Now()
	return &User{
		GoogleID:  googleID,
		Email:     email,
		Role:      RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the user
func (u *User) Validate() error {
	var errs ValidationErrors
	if u.GoogleID == "" {
		errs = append(errs, NewMissingFieldError("google_id"))
	}
	if u.Email == "" {
		errs = append(errs, NewMissingFieldError("email"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Accuracy is correctAnswers/totalAnswers as a rounded percentage.
func (u *User) Accuracy() int {
	return Percentage(u.CorrectAnswers, u.TotalAnswers)
}

// HasBadge reports whether the badge is already held.
func (u *User) HasBadge(badge string) bool {
	for _, b := range u.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// StatsDelta is a set of non-negative increments applied atomically to a user.
type StatsDelta struct {
	XP               int
	CoursesCompleted int
	QuizzesCompleted int
	CorrectAnswers   int
	TotalAnswers     int
	TimeSpent        int
}

// IsZero reports whether applying the delta would change nothing.
func (d StatsDelta) IsZero() bool {
	return d == StatsDelta{}
}

// Validate rejects decrements; XP and counters only grow.
func (d StatsDelta) Validate() error {
	var errs ValidationErrors
	check := func(field string, v int) {
		if v < 0 {
			errs = append(errs, ValidationError{Field: field, Message: "must not be negative", Value: v})
		}
	}
	check("xp", d.XP)
	check("coursesCompleted", d.CoursesCompleted)
	check("quizzesCompleted", d.QuizzesCompleted)
	check("correctAnswers", d.CorrectAnswers)
	check("totalAnswers", d.TotalAnswers)
	check("timeSpent", d.TimeSpent)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AccuracyPolicy decides which questions count toward totalAnswers.
type AccuracyPolicy int

const (
	// CountSkipped counts every question of the quiz, answered or not.
	CountSkipped AccuracyPolicy = iota
	// ExcludeSkipped counts only questions with a selected option.
	ExcludeSkipped
)

// QuizStatsDelta converts a scored result into the ledger increments for one submission.
func QuizStatsDelta(r *Result, policy AccuracyPolicy) StatsDelta {
	total := r.Total
	if policy == ExcludeSkipped {
		total = r.Answered
	}
	return StatsDelta{
		XP:               r.XPEarned,
		QuizzesCompleted: 1,
		CorrectAnswers:   r.Score,
		TotalAnswers:     total,
	}
}

// LeaderboardEntry is a read-only projection of a ranked student.
type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	ProfilePicture   string    `json:"profilePicture,omitempty"`
	Wilaya           string    `json:"wilaya,omitempty"`
	XP               int       `json:"xp"`
	Streak           int       `json:"streak"`
	CoursesCompleted int       `json:"coursesCompleted"`
	QuizzesCompleted int       `json:"quizzesCompleted"`
	Accuracy         int       `json:"accuracy"`
	Level            LevelInfo `json:"level"`
}

// WilayaStanding aggregates XP per region.
type WilayaStanding struct {
	Wilaya       string `json:"wilaya"`
	TotalXP      int    `json:"totalXp"`
	StudentCount int    `json:"studentCount"`
}
