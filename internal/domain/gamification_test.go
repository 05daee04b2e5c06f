package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelLadder_LevelFor(t *testing.T) {
	tests := []struct {
		xp        int
		wantLevel int
		wantTitle string
	}{
		{0, 1, "Beginner"},
		{99, 1, "Beginner"},
		{100, 2, "Learner"},
		{299, 2, "Learner"},
		{300, 3, "Intermediate"},
		{600, 4, "Advanced"},
		{999, 4, "Advanced"},
		{1000, 5, "Expert"},
		{2000, 6, "Master"},
		{50000, 6, "Master"},
	}
	for _, tt := range tests {
		info := DefaultLadder.LevelFor(tt.xp)
		assert.Equal(t, tt.wantLevel, info.Level, "xp=%d", tt.xp)
		assert.Equal(t, tt.wantTitle, info.Title, "xp=%d", tt.xp)
	}
}

func TestLevelLadder_NextLevelProgress(t *testing.T) {
	info := DefaultLadder.LevelFor(150)
	assert.Equal(t, 300, info.NextLevel)
	assert.Equal(t, 25, info.Progress)

	top := DefaultLadder.LevelFor(2500)
	assert.Equal(t, 0, top.NextLevel)
	assert.Equal(t, 100, top.Progress)
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}

	tests := []struct {
		name        string
		current     int
		lastActive  *time.Time
		wantStreak  int
		wantOutcome StreakOutcome
	}{
		{"first activity", 0, nil, 1, StreakStarted},
		{"same day keeps streak", 4, at(-8 * time.Hour), 4, StreakUnchanged},
		{"yesterday late evening extends", 4, at(-10 * time.Hour), 5, StreakExtended},
		{"yesterday early morning extends", 4, at(-32 * time.Hour), 5, StreakExtended},
		{"two days ago resets", 4, at(-48 * time.Hour), 1, StreakReset},
		{"future last activity resets", 4, at(48 * time.Hour), 1, StreakReset},
		{"same day with zero streak starts", 0, at(-time.Hour), 1, StreakStarted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := NextStreak(tt.current, tt.lastActive, now, time.UTC)
			assert.Equal(t, tt.wantStreak, got)
			assert.Equal(t, tt.wantOutcome, outcome)
		})
	}
}

func TestNextStreak_UsesCalendarDateInLocation(t *testing.T) {
	algiers := time.FixedZone("CET", 60*60)
	// 23:30 UTC on the 9th is already the 10th in UTC+1.
	last := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	inUTC, _ := NextStreak(3, &last, now, time.UTC)
	inCET, _ := NextStreak(3, &last, now, algiers)

	assert.Equal(t, 4, inUTC)
	assert.Equal(t, 3, inCET)
}

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0, CompletionPercentage(3, 0))
	assert.Equal(t, 25, CompletionPercentage(1, 4))
	assert.Equal(t, 33, CompletionPercentage(1, 3))
	assert.Equal(t, 100, CompletionPercentage(4, 4))
	assert.Equal(t, 100, CompletionPercentage(6, 4))
}

func TestQuizStatsDelta_AccuracyPolicy(t *testing.T) {
	result := &Result{Score: 2, Total: 5, Answered: 3, XPEarned: 9}

	counted := QuizStatsDelta(result, CountSkipped)
	assert.Equal(t, StatsDelta{XP: 9, QuizzesCompleted: 1, CorrectAnswers: 2, TotalAnswers: 5}, counted)

	excluded := QuizStatsDelta(result, ExcludeSkipped)
	assert.Equal(t, 3, excluded.TotalAnswers)
}

func TestStatsDelta_Validate(t *testing.T) {
	assert.NoError(t, StatsDelta{XP: 10}.Validate())
	assert.Error(t, StatsDelta{XP: -1}.Validate())
	assert.True(t, StatsDelta{}.IsZero())
}

func TestReward_Rules(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	reward := &Reward{ID: "r1", Title: "Streak Master", Icon: "🔥", IsActive: true, MinStreak: 7, MaxClaims: 2}

	assert.Equal(t, "🔥 Streak Master", reward.BadgeLabel())
	assert.Equal(t, "", reward.Availability(now))
	assert.Equal(t, "streak", reward.UnmetRequirement(&User{Streak: 3}))
	assert.Equal(t, "", reward.UnmetRequirement(&User{Streak: 7}))

	reward.TotalClaimed = 2
	assert.Equal(t, "reward has no claims left", reward.Availability(now))

	reward.TotalClaimed = 0
	reward.ExpiresAt = &past
	assert.Equal(t, "reward has expired", reward.Availability(now))

	reward.ExpiresAt = nil
	reward.IsActive = false
	assert.Equal(t, "reward is inactive", reward.Availability(now))
}

func TestUser_Accuracy(t *testing.T) {
	assert.Equal(t, 0, (&User{}).Accuracy())
	assert.Equal(t, 67, (&User{CorrectAnswers: 2, TotalAnswers: 3}).Accuracy())
}
