package dto

import (
	"time"

	"learnquest/internal/domain"
)

// LessonCompleteRequest reports a finished lesson
// @Description Request body for recording lesson completion
type LessonCompleteRequest struct {
	CourseID  string `json:"courseId" validate:"required,max=64"`
	LessonID  string `json:"lessonId" validate:"required,max=64"`
	TimeSpent int    `json:"timeSpent" validate:"min=0"`
}

// ProgressResponse is a user's standing in one course.
type ProgressResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	CourseID         string     `json:"courseId"`
	CompletedLessons []string   `json:"completedLessons"`
	Percentage       int        `json:"percentage"`
	IsCompleted      bool       `json:"isCompleted"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	TimeSpent        int        `json:"timeSpent"`
	LastAccessedAt   time.Time  `json:"lastAccessedAt"`
}

// LessonCompletionResponse adds the ledger outcome to the progress record.
// @Description Progress after a lesson completion
type LessonCompletionResponse struct {
	ProgressResponse
	LessonAdded     bool `json:"lessonAdded"`
	CourseCompleted bool `json:"courseCompleted"`
	XPAwarded       int  `json:"xpAwarded"`
}

func NewProgressResponse(p *domain.Progress) ProgressResponse {
	lessons := p.CompletedLessons
	if lessons == nil {
		lessons = []string{}
	}
	return ProgressResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		CourseID:         p.CourseID,
		CompletedLessons: lessons,
		Percentage:       p.Percentage,
		IsCompleted:      p.IsCompleted,
		CompletedAt:      p.CompletedAt,
		TimeSpent:        p.TimeSpent,
		LastAccessedAt:   p.LastAccessedAt,
	}
}

func NewLessonCompletionResponse(c *domain.LessonCompletion) *LessonCompletionResponse {
	return &LessonCompletionResponse{
		ProgressResponse: NewProgressResponse(c.Progress),
		LessonAdded:      c.LessonAdded,
		CourseCompleted:  c.CourseCompleted,
		XPAwarded:        c.XPAwarded,
	}
}
