package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// NoAnswer marks a question that was skipped or timed out.
	NoAnswer = -1

	DefaultQuestionPoints    = 10
	DefaultPassingScore      = 60
	DefaultQuizXPReward      = 30
	DefaultQuestionTimeLimit = 30 * time.Second
)

// Option is one choice of a multiple-choice question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a single multiple-choice item of a quiz.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"`
	Difficulty  string   `json:"difficulty,omitempty"`
}

// CorrectOption returns the index of the first option flagged correct, or NoAnswer.
func (q *Question) CorrectOption() int {
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return NoAnswer
}

// IsCorrectChoice reports whether the selected index names a correct option.
// Out-of-range indexes are simply incorrect.
func (q *Question) IsCorrectChoice(selected int) bool {
	if selected < 0 || selected >= len(q.Options) {
		return false
	}
	return q.Options[selected].IsCorrect
}

// PointValue returns the configured points, defaulting to DefaultQuestionPoints.
func (q *Question) PointValue() int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// Quiz represents an authored, immutable quiz definition.
type Quiz struct {
	ID                string
	Title             string
	Description       string
	CourseID          string
	Subject           string
	Level             string
	Questions         []Question
	QuestionTimeLimit time.Duration
	PassingScore      int
	XPReward          int
	Attempts          int
	IsPublished       bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewQuiz creates a quiz with the platform defaults applied.
func NewQuiz(id, title string, questions []Question) *Quiz {
	now := time.Now()
	return &Quiz{
		ID:                id,
		Title:             title,
		Questions:         questions,
		QuestionTimeLimit: DefaultQuestionTimeLimit,
		PassingScore:      DefaultPassingScore,
		XPReward:          DefaultQuizXPReward,
		IsPublished:       true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// TimeLimit returns the per-question countdown, falling back to the default.
func (q *Quiz) TimeLimit() time.Duration {
	if q.QuestionTimeLimit <= 0 {
		return DefaultQuestionTimeLimit
	}
	return q.QuestionTimeLimit
}

// QuestionByID finds a question by its identifier.
func (q *Quiz) QuestionByID(id string) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// Validate enforces authoring rules. Scoring tolerates malformed quizzes;
// authoring does not.
func (q *Quiz) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(q.ID) == "" {
		errs = append(errs, NewMissingFieldError("id"))
	}
	if strings.TrimSpace(q.Title) == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if len(q.Questions) == 0 {
		errs = append(errs, ValidationError{Field: "questions", Message: "quiz must contain at least one question"})
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		errs = append(errs, NewOutOfRangeError("passingScore", q.PassingScore, 0, 100))
	}
	if q.XPReward < 0 {
		errs = append(errs, ValidationError{Field: "xpReward", Message: "must not be negative", Value: q.XPReward})
	}

	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(question.ID) == "" {
			errs = append(errs, NewMissingFieldError(field+".id"))
		} else if _, dup := seen[question.ID]; dup {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "duplicate question id", Value: question.ID})
		} else {
			seen[question.ID] = struct{}{}
		}
		if strings.TrimSpace(question.Text) == "" {
			errs = append(errs, NewMissingFieldError(field+".text"))
		}
		if len(question.Options) < 2 {
			errs = append(errs, ValidationError{Field: field + ".options", Message: "at least two options are required"})
		}
		correct := 0
		for _, opt := range question.Options {
			if opt.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			errs = append(errs, ValidationError{Field: field + ".options", Message: "exactly one option must be correct", Value: correct})
		}
		if question.Points < 0 {
			errs = append(errs, ValidationError{Field: field + ".points", Message: "must not be negative", Value: question.Points})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Answer is a learner's selection for one question.
type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
}

// Answered reports whether an option was chosen.
func (a Answer) Answered() bool {
	return a.SelectedOption >= 0
}

// QuestionResult is the graded outcome of a single question.
type QuestionResult struct {
	QuestionID     string `json:"questionId"`
	Question       string `json:"question"`
	SelectedOption int    `json:"selectedOption"`
	CorrectOption  int    `json:"correctOption"`
	IsCorrect      bool   `json:"isCorrect"`
	Explanation    string `json:"explanation,omitempty"`
	Points         int    `json:"points"`
}

// Result is the deterministic outcome of scoring an attempt.
type Result struct {
	QuizID       string
	Questions    []QuestionResult
	Score        int
	Total        int
	Answered     int
	Percentage   int
	Passed       bool
	XPEarned     int
	EarnedPoints int
	TotalPoints  int
}

// QuizSubmission is the persisted record of an authenticated, applied attempt.
type QuizSubmission struct {
	ID          string
	UserID      string
	QuizID      string
	Score       int
	Total       int
	Answered    int
	Percentage  int
	Passed      bool
	XPEarned    int
	TimeSpent   int
	SubmittedAt time.Time
}
