package dto

import (
	"time"

	"learnquest/internal/domain"
)

// Pagination defines parameters for paginated requests.
type Pagination struct {
	Limit  int `query:"limit"`  // Number of items per page
	Offset int `query:"offset"` // Number of items to skip
}

// PaginationInfo defines pagination details for responses.
type PaginationInfo struct {
	TotalItems int `json:"totalItems"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// UserProfileResponse is the caller's profile with gamification standing.
// @Description User profile, level, badges and course progress
type UserProfileResponse struct {
	ID                string             `json:"id"`
	Email             string             `json:"email"`
	Name              string             `json:"name,omitempty"`
	ProfilePictureURL string             `json:"profilePictureUrl,omitempty"`
	Role              string             `json:"role"`
	Wilaya            string             `json:"wilaya,omitempty"`
	XP                int                `json:"xp"`
	Level             domain.LevelInfo   `json:"level"`
	Streak            int                `json:"streak"`
	LastActiveAt      *time.Time         `json:"lastActiveAt,omitempty"`
	CoursesCompleted  int                `json:"coursesCompleted"`
	QuizzesCompleted  int                `json:"quizzesCompleted"`
	CorrectAnswers    int                `json:"correctAnswers"`
	TotalAnswers      int                `json:"totalAnswers"`
	Accuracy          int                `json:"accuracy"`
	TotalTimeSpent    int                `json:"totalTimeSpent"`
	Badges            []string           `json:"badges"`
	Progress          []ProgressResponse `json:"progress"`
}

// ActivityResponse is the streak after an activity event.
type ActivityResponse struct {
	Streak       int       `json:"streak"`
	Outcome      string    `json:"outcome"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// SubmissionItem is one recorded quiz submission.
type SubmissionItem struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	Passed      bool      `json:"passed"`
	XPEarned    int       `json:"xpEarned"`
	TimeSpent   int       `json:"timeSpent"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubmissionListResponse is a page of the caller's submission history.
type SubmissionListResponse struct {
	Submissions    []SubmissionItem `json:"submissions"`
	PaginationInfo PaginationInfo   `json:"paginationInfo"`
}

// LeaderboardResponse lists ranked students.
type LeaderboardResponse struct {
	Wilaya  string                    `json:"wilaya,omitempty"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

// WilayaLeaderboardResponse lists regional XP totals.
type WilayaLeaderboardResponse struct {
	Standings []domain.WilayaStanding `json:"standings"`
}

func NewSubmissionItem(s *domain.QuizSubmission) SubmissionItem {
	return SubmissionItem{
		ID:          s.ID,
		QuizID:      s.QuizID,
		Score:       s.Score,
		Total:       s.Total,
		Percentage:  s.Percentage,
		Passed:      s.Passed,
		XPEarned:    s.XPEarned,
		TimeSpent:   s.TimeSpent,
		SubmittedAt: s.SubmittedAt,
	}
}

// XPDeltaRequest adds XP to a user outside the quiz and lesson flows.
type XPDeltaRequest struct {
	Delta int `json:"delta" validate:"min=0"`
}
