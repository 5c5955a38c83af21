package domain

const (
	EventNameResultRecorded     = "result.recorded"
	EventNameLeaderboardUpdated = "leaderboard.updated"
	EventNameAchievementEarned  = "achievement.earned"
)

// EventResultRecorded fires after a completed attempt is durably stored.
type EventResultRecorded struct {
	Result CompletedResult
}

func (EventResultRecorded) Name() string { return EventNameResultRecorded }

type EventLeaderboardUpdated struct {
	Leaderboard []LeaderboardRow
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }

// EventAchievementEarned fires once per newly earned badge, never for
// duplicate inserts.
type EventAchievementEarned struct {
	Achievement Achievement
}

func (EventAchievementEarned) Name() string { return EventNameAchievementEarned }
