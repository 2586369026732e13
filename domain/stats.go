package domain

import (
	"strings"
	"time"
)

// Period bounds the tasks a leaderboard considers.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps free text to a period, defaulting to all.
func ParsePeriod(raw string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case PeriodWeek:
		return PeriodWeek
	case PeriodMonth:
		return PeriodMonth
	default:
		return PeriodAll
	}
}

// Since returns the inclusive lower bound of the period relative to now.
func (p Period) Since(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

type LeaderboardEntry struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
	CompletionRate int    `json:"completionRate"`
	Strikes        int    `json:"strikes"`
}

type TeamStats struct {
	TotalUsers          int `json:"totalUsers"`
	TotalTasks          int `json:"totalTasks"`
	CompletedTasks      int `json:"completedTasks"`
	PendingTasks        int `json:"pendingTasks"`
	TodayTasks          int `json:"todayTasks"`
	TodayCompleted      int `json:"todayCompleted"`
	CompletionRate      int `json:"completionRate"`
	TodayCompletionRate int `json:"todayCompletionRate"`
}

type Progress struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	Strikes        int `json:"strikes"`
	CompletionRate int `json:"completionRate"`
}

type TeamMember struct {
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	TotalTasks     int       `json:"totalTasks"`
	CompletedTasks int       `json:"completedTasks"`
	Strikes        int       `json:"strikes"`
	LastActive     time.Time `json:"lastActive"`
	RegisteredAt   time.Time `json:"registeredAt"`
	IsActive       bool      `json:"isActive"`
}
