package domain

import "time"

const (
	DefaultLessonXP = 10
	DefaultCourseXP = 50
)

// Course is the read-only view of a course needed by the progress ledger.
type Course struct {
	ID           string
	Title        string
	TotalLessons int
	XPReward     int
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CompletionXP returns the course reward, falling back to def when unset.
func (c *Course) CompletionXP(def int) int {
	if c.XPReward > 0 {
		return c.XPReward
	}
	return def
}

// Progress is one learner's record for one course. (UserID, CourseID) is unique.
type Progress struct {
	ID               string
	UserID           string
	CourseID         string
	CompletedLessons []string
	Percentage       int
	IsCompleted      bool
	CompletedAt      *time.Time
	TimeSpent        int
	LastAccessedAt   time.Time
	CreatedAt        time.Time
}

// HasLesson reports whether the lesson is already recorded.
func (p *Progress) HasLesson(lessonID string) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// CompletionPercentage is completed/total*100 rounded half up and capped at
// 100. A course with no lessons is 0%.
func CompletionPercentage(completed, totalLessons int) int {
	if totalLessons <= 0 {
		return 0
	}
	pct := Percentage(completed, totalLessons)
	if pct > 100 {
		return 100
	}
	return pct
}

// LessonCompletion carries the outcome of one recordLessonCompletion call.
type LessonCompletion struct {
	Progress        *Progress
	LessonAdded     bool
	CourseCompleted bool
	XPAwarded       int
}
