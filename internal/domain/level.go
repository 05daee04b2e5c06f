package domain

// LevelTier is one rung of the XP ladder.
type LevelTier struct {
	Level     int    `json:"level"`
	Threshold int    `json:"threshold"`
	Title     string `json:"title"`
}

// LevelLadder is ordered by ascending threshold; the first tier starts at 0.
type LevelLadder []LevelTier

// DefaultLadder is the platform's level table.
var DefaultLadder = LevelLadder{
	{Level: 1, Threshold: 0, Title: "Beginner"},
	{Level: 2, Threshold: 100, Title: "Learner"},
	{Level: 3, Threshold: 300, Title: "Intermediate"},
	{Level: 4, Threshold: 600, Title: "Advanced"},
	{Level: 5, Threshold: 1000, Title: "Expert"},
	{Level: 6, Threshold: 2000, Title: "Master"},
}

// LevelInfo is the derived level of an XP total.
type LevelInfo struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	XP        int    `json:"xp"`
	NextLevel int    `json:"nextLevelXp,omitempty"`
	Progress  int    `json:"progress"`
}

// LevelFor returns the highest tier whose threshold is <= xp.
func (l LevelLadder) LevelFor(xp int) LevelInfo {
	if len(l) == 0 {
		return LevelInfo{Level: 1, XP: xp}
	}
	idx := 0
	for i, tier := range l {
		if xp >= tier.Threshold {
			idx = i
		}
	}
	current := l[idx]
	info := LevelInfo{Level: current.Level, Title: current.Title, XP: xp, Progress: 100}
	if idx+1 < len(l) {
		next := l[idx+1]
		info.NextLevel = next.Threshold
		info.Progress = Percentage(xp-current.Threshold, next.Threshold-current.Threshold)
	}
	return info
}
