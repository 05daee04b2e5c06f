package cache

import "strings"

// Prefix namespaces every key this service writes.
const Prefix = "learnquest"

// Key joins parts under Prefix with ':'. Empty parts are skipped.
func Key(parts ...string) string {
	b := strings.Builder{}
	b.WriteString(Prefix)
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

func QuizDefinitionKey(quizID string) string { return Key("quiz", "definition", quizID) }

func SubmissionResultKey(userID, submissionID string) string {
	return Key("quiz", "submission_result", userID, submissionID)
}

// LeaderboardKey scopes the student ranking; an empty wilaya means nationwide.
func LeaderboardKey(wilaya string) string {
	if wilaya == "" {
		wilaya = "all"
	}
	return Key("leaderboard", "students", wilaya)
}

func WilayaStandingsKey() string { return Key("leaderboard", "wilayas") }

func SessionMarkerKey(sessionID string) string { return Key("session", "live", sessionID) }
