package main

import (
	"fmt"
	"os"
	"time"

	"learnquest/internal/domain"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document loaded by the seed command.
type Fixture struct {
	Users   []UserFixture   `yaml:"users"`
	Courses []CourseFixture `yaml:"courses"`
	Quizzes []QuizFixture   `yaml:"quizzes"`
	Rewards []RewardFixture `yaml:"rewards"`
}

type UserFixture struct {
	GoogleID string `yaml:"google_id"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Wilaya   string `yaml:"wilaya"`
}

type CourseFixture struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	TotalLessons int    `yaml:"total_lessons"`
	XPReward     int    `yaml:"xp_reward"`
}

type QuizFixture struct {
	ID                string            `yaml:"id"`
	Title             string            `yaml:"title"`
	Description       string            `yaml:"description"`
	CourseID          string            `yaml:"course_id"`
	Subject           string            `yaml:"subject"`
	Level             string            `yaml:"level"`
	QuestionTimeLimit time.Duration     `yaml:"question_time_limit"`
	PassingScore      *int              `yaml:"passing_score"`
	XPReward          *int              `yaml:"xp_reward"`
	Draft             bool              `yaml:"draft"`
	Questions         []QuestionFixture `yaml:"questions"`
}

// QuestionFixture names the correct option by index.
type QuestionFixture struct {
	ID          string   `yaml:"id"`
	Text        string   `yaml:"text"`
	Options     []string `yaml:"options"`
	Correct     int      `yaml:"correct"`
	Explanation string   `yaml:"explanation"`
	Points      int      `yaml:"points"`
	Difficulty  string   `yaml:"difficulty"`
}

type RewardFixture struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Icon        string     `yaml:"icon"`
	Type        string     `yaml:"type"`
	MinXP       int        `yaml:"min_xp"`
	MinStreak   int        `yaml:"min_streak"`
	MinCourses  int        `yaml:"min_courses"`
	MinQuizzes  int        `yaml:"min_quizzes"`
	MaxClaims   int        `yaml:"max_claims"`
	Inactive    bool       `yaml:"inactive"`
	ExpiresAt   *time.Time `yaml:"expires_at"`
}

// LoadFixture reads and decodes a fixture file. Unknown keys are rejected.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	return &fx, nil
}

// ToDomain builds a validated quiz definition.
func (q QuizFixture) ToDomain() (*domain.Quiz, error) {
	questions := make([]domain.Question, 0, len(q.Questions))
	for _, qf := range q.Questions {
		options := make([]domain.Option, 0, len(qf.Options))
		for i, text := range qf.Options {
			options = append(options, domain.Option{Text: text, IsCorrect: i == qf.Correct})
		}
		questions = append(questions, domain.Question{
			ID:          qf.ID,
			Text:        qf.Text,
			Options:     options,
			Explanation: qf.Explanation,
			Points:      qf.Points,
			Difficulty:  qf.Difficulty,
		})
	}

	quiz := domain.NewQuiz(q.ID, q.Title, questions)
	quiz.Description = q.Description
	quiz.CourseID = q.CourseID
	quiz.Subject = q.Subject
	quiz.Level = q.Level
	quiz.IsPublished = !q.Draft
	if q.QuestionTimeLimit > 0 {
		quiz.QuestionTimeLimit = q.QuestionTimeLimit
	}
	if q.PassingScore != nil {
		quiz.PassingScore = *q.PassingScore
	}
	if q.XPReward != nil {
		quiz.XPReward = *q.XPReward
	}
	if err := quiz.Validate(); err != nil {
		return nil, fmt.Errorf("quiz %q: %w", q.ID, err)
	}
	return quiz, nil
}

func (c CourseFixture) ToDomain() *domain.Course {
	return &domain.Course{
		ID:           c.ID,
		Title:        c.Title,
		TotalLessons: c.TotalLessons,
		XPReward:     c.XPReward,
		IsPublished:  true,
	}
}

func (r RewardFixture) ToDomain() *domain.Reward {
	return &domain.Reward{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Icon:        r.Icon,
		Type:        r.Type,
		MinXP:       r.MinXP,
		MinStreak:   r.MinStreak,
		MinCourses:  r.MinCourses,
		MinQuizzes:  r.MinQuizzes,
		MaxClaims:   r.MaxClaims,
		IsActive:    !r.Inactive,
		ExpiresAt:   r.ExpiresAt,
	}
}

func (u UserFixture) ToDomain() *domain.User {
	user := domain.NewUser(u.GoogleID, u.Email)
	user.Name = u.Name
	user.Wilaya = u.Wilaya
	if u.Role != "" {
		user.Role = u.Role
	}
	return user
}
