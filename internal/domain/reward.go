package domain

import (
	"strings"
	"time"
)

// Reward is a claimable badge with optional requirement thresholds.
// A zero threshold means no requirement.
type Reward struct {
	ID           string
	Title        string
	Description  string
	Icon         string
	Type         string
	MinXP        int
	MinStreak    int
	MinCourses   int
	MinQuizzes   int
	MaxClaims    int
	TotalClaimed int
	ClaimedBy    []string
	IsActive     bool
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// BadgeLabel is the badge string added to a user who receives the reward.
func (r *Reward) BadgeLabel() string {
	return strings.TrimSpace(r.Icon + " " + r.Title)
}

// IsClaimedBy reports whether the user already holds a claim.
func (r *Reward) IsClaimedBy(userID string) bool {
	for _, id := range r.ClaimedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Availability returns "" when the reward can be claimed at now, otherwise a reason.
func (r *Reward) Availability(now time.Time) string {
	switch {
	case !r.IsActive:
		return "reward is inactive"
	case r.ExpiresAt != nil && !now.Before(*r.ExpiresAt):
		return "reward has expired"
	case r.MaxClaims > 0 && r.TotalClaimed >= r.MaxClaims:
		return "reward has no claims left"
	}
	return ""
}

// UnmetRequirement returns the first threshold the user does not meet, or "".
func (r *Reward) UnmetRequirement(u *User) string {
	switch {
	case r.MinXP > 0 && u.XP < r.MinXP:
		return "xp"
	case r.MinStreak > 0 && u.Streak < r.MinStreak:
		return "streak"
	case r.MinCourses > 0 && u.CoursesCompleted < r.MinCourses:
		return "coursesCompleted"
	case r.MinQuizzes > 0 && u.QuizzesCompleted < r.MinQuizzes:
		return "quizzesCompleted"
	}
	return ""
}

// ClaimOutcome is the result of an atomic claim attempt.
type ClaimOutcome int

const (
	ClaimRecorded ClaimOutcome = iota
	ClaimDuplicate
	ClaimLimitReached
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimRecorded:
		return "recorded"
	case ClaimDuplicate:
		return "duplicate"
	case ClaimLimitReached:
		return "limit_reached"
	}
	return "unknown"
}
