// Package stats computes leaderboards and team figures from store snapshots.
// The functions in this file are pure; they never mutate their inputs.
package stats

import (
	"sort"
	"time"

	"github.com/fastygo/taskbot/domain"
)

// LeaderboardSize caps every leaderboard.
const LeaderboardSize = 10

// Leaderboard ranks active profiles by tasks completed among those created within period.
// Ties keep profile order.
func Leaderboard(profiles []domain.Profile, tasks []domain.Task, period domain.Period, now time.Time) []domain.LeaderboardEntry {
	since, bounded := period.Since(now)

	type tally struct{ completed, total int }
	counts := make(map[string]*tally)
	for _, task := range tasks {
		if bounded && task.CreatedAt.Before(since) {
			continue
		}
		t := counts[task.UserID]
		if t == nil {
			t = &tally{}
			counts[task.UserID] = t
		}
		t.total++
		if task.IsCompleted() {
			t.completed++
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		if !p.IsActive() {
			continue
		}
		entry := domain.LeaderboardEntry{
			UserID:  p.UserID,
			Name:    p.UserName,
			Strikes: p.Strikes,
		}
		if t := counts[p.UserID]; t != nil {
			entry.CompletedTasks = t.completed
			entry.TotalTasks = t.total
			entry.CompletionRate = domain.CompletionRate(t.completed, t.total)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedTasks > entries[j].CompletedTasks
	})
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	return entries
}

// TeamStats summarizes the whole team and the given calendar date.
func TeamStats(profiles []domain.Profile, tasks []domain.Task, today string) domain.TeamStats {
	var stats domain.TeamStats
	for _, p := range profiles {
		if p.IsActive() {
			stats.TotalUsers++
		}
	}
	for _, task := range tasks {
		stats.TotalTasks++
		if task.IsCompleted() {
			stats.CompletedTasks++
		}
		if task.Date == today {
			stats.TodayTasks++
			if task.IsCompleted() {
				stats.TodayCompleted++
			}
		}
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	stats.CompletionRate = domain.CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	stats.TodayCompletionRate = domain.CompletionRate(stats.TodayCompleted, stats.TodayTasks)
	return stats
}

// UserProgress reads the counters of profile. A nil profile yields all zeros.
func UserProgress(profile *domain.Profile) domain.Progress {
	if profile == nil {
		return domain.Progress{}
	}
	return domain.Progress{
		TotalTasks:     profile.TotalTasks,
		CompletedTasks: profile.CompletedTasks,
		Strikes:        profile.Strikes,
		CompletionRate: domain.CompletionRate(profile.CompletedTasks, profile.TotalTasks),
	}
}

// TeamMembers lists active profiles, most recently active first.
func TeamMembers(profiles []domain.Profile) []domain.TeamMember {
	members := make([]domain.TeamMember, 0, len(profiles))
	for _, p := range profiles {
		if !p.IsActive() {
			continue
		}
		members = append(members, domain.TeamMember{
			UserID:         p.UserID,
			UserName:       p.UserName,
			TotalTasks:     p.TotalTasks,
			CompletedTasks: p.CompletedTasks,
			Strikes:        p.Strikes,
			LastActive:     p.LastActive,
			RegisteredAt:   p.RegisteredAt,
			IsActive:       true,
		})
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].LastActive.After(members[j].LastActive)
	})
	return members
}

// Streak counts consecutive days with at least one completion, ending today.
// A streak still counts when the last completion was yesterday.
func Streak(tasks []domain.Task, today time.Time) int {
	days := make(map[string]bool)
	for _, task := range tasks {
		if task.IsCompleted() && task.CompletedAt != nil {
			days[task.CompletedAt.In(today.Location()).Format(domain.DateLayout)] = true
		}
	}

	day := today
	if !days[day.Format(domain.DateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for days[day.Format(domain.DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
