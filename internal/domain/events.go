package domain

import (
	"context"
	"time"
)

// Event types published after ledger mutations commit.
const (
	EventQuizSubmitted   = "quiz.submitted"
	EventLessonCompleted = "lesson.completed"
	EventCourseCompleted = "course.completed"
	EventRewardGranted   = "reward.granted"
	EventStreakUpdated   = "streak.updated"
)

// Event is a fact about a committed ledger change.
type Event struct {
	Type       string                 `json:"type"`
	UserID     string                 `json:"userId"`
	OccurredAt time.Time              `json:"occurredAt"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, userID string, payload map[string]interface{}) Event {
	return Event{Type: eventType, UserID: userID, OccurredAt: time.Now().UTC(), Payload: payload}
}

// EventPublisher delivers events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
