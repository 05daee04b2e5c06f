package domain

import "time"

// StreakOutcome describes how an activity event moved the streak.
type StreakOutcome string

const (
	StreakStarted   StreakOutcome = "started"
	StreakExtended  StreakOutcome = "extended"
	StreakUnchanged StreakOutcome = "unchanged"
	StreakReset     StreakOutcome = "reset"
)

// NextStreak applies the daily streak rule. Only calendar dates in loc are
// compared: activity on the day after lastActive extends the streak, activity
// on the same day leaves it unchanged, anything else starts over at 1.
func NextStreak(current int, lastActive *time.Time, now time.Time, loc *time.Location) (int, StreakOutcome) {
	if loc == nil {
		loc = time.UTC
	}
	if lastActive == nil || lastActive.IsZero() {
		return 1, StreakStarted
	}

	today := calendarDay(now, loc)
	last := calendarDay(*lastActive, loc)

	switch {
	case last.Equal(today):
		if current < 1 {
			return 1, StreakStarted
		}
		return current, StreakUnchanged
	case last.AddDate(0, 0, 1).Equal(today):
		return current + 1, StreakExtended
	default:
		return 1, StreakReset
	}
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
