package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for scored quiz submissions; duplicate=true means a replayed submission ID
	quizSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnquest_quiz_submissions_total",
			Help: "Total number of scored quiz submissions",
		},
		[]string{"passed", "duplicate"},
	)

	// Counter for XP credited to users, by source: quiz/lesson/course
	xpAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnquest_xp_awarded_total",
			Help: "Total XP credited to users",
		},
		[]string{"source"},
	)

	lessonCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnquest_lesson_completions_total",
			Help: "Total number of lesson completion reports",
		},
		[]string{"new"},
	)

	courseCompletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "learnquest_course_completions_total",
			Help: "Total number of courses completed",
		},
	)

	rewardClaims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnquest_reward_claims_total",
			Help: "Reward claim and grant attempts by result",
		},
		[]string{"result"},
	)

	streakUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnquest_streak_updates_total",
			Help: "Streak updates by outcome",
		},
		[]string{"outcome"},
	)

	// Histogram for HTTP request latency
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learnquest_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "learnquest_quiz_sessions_active",
			Help: "Current number of live timed quiz sessions",
		},
	)
)

func QuizSubmitted(passed, duplicate bool) {
	quizSubmissions.WithLabelValues(strconv.FormatBool(passed), strconv.FormatBool(duplicate)).Inc()
}

// XPAwarded ignores non-positive amounts.
func XPAwarded(source string, xp int) {
	if xp > 0 {
		xpAwarded.WithLabelValues(source).Add(float64(xp))
	}
}

func LessonCompleted(isNew bool) {
	lessonCompletions.WithLabelValues(strconv.FormatBool(isNew)).Inc()
}

func CourseCompleted() {
	courseCompletions.Inc()
}

func RewardClaim(result string) {
	rewardClaims.WithLabelValues(result).Inc()
}

func StreakUpdated(outcome string) {
	streakUpdates.WithLabelValues(outcome).Inc()
}

func ObserveRequest(method, route string, status int, seconds float64) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

func SessionStarted() { activeSessions.Inc() }
func SessionEnded()   { activeSessions.Dec() }
