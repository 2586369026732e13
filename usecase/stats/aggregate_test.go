package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/fastygo/taskbot/domain"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func profileFor(id, name string, active bool) domain.Profile {
	p := domain.NewProfile(id, now)
	p.UserName = name
	p.SetActive(active)
	return *p
}

func taskFor(user string, age time.Duration, completed bool) domain.Task {
	created := now.Add(-age)
	t := domain.Task{
		UserID:    user,
		Status:    domain.TaskPending,
		CreatedAt: created,
		Date:      created.Format(domain.DateLayout),
	}
	if completed {
		t.Complete(created.Add(time.Minute))
	}
	return t
}

func TestLeaderboardPeriods(t *testing.T) {
	profiles := []domain.Profile{profileFor("a", "Asha", true)}
	tasks := []domain.Task{
		taskFor("a", 6*24*time.Hour, true),
		taskFor("a", 8*24*time.Hour, true),
		taskFor("a", 40*24*time.Hour, false),
	}

	tests := []struct {
		period    domain.Period
		completed int
		total     int
		rate      int
	}{
		{domain.PeriodWeek, 1, 1, 100},
		{domain.PeriodMonth, 2, 2, 100},
		{domain.PeriodAll, 2, 3, 67},
		{domain.ParsePeriod("yearly"), 2, 3, 67},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got := Leaderboard(profiles, tasks, tt.period, now)
			if len(got) != 1 {
				t.Fatalf("got %d entries", len(got))
			}
			e := got[0]
			if e.CompletedTasks != tt.completed || e.TotalTasks != tt.total || e.CompletionRate != tt.rate {
				t.Fatalf("entry = %+v, want %d/%d %d%%", e, tt.completed, tt.total, tt.rate)
			}
		})
	}
}

func TestLeaderboardOrderingAndLimit(t *testing.T) {
	var profiles []domain.Profile
	var tasks []domain.Task
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("u%02d", i)
		profiles = append(profiles, profileFor(id, id, true))
		// u00 and u01 tie with one completion; the rest have none except u11.
		if i < 2 {
			tasks = append(tasks, taskFor(id, time.Hour, true))
		}
	}
	tasks = append(tasks, taskFor("u11", time.Hour, true), taskFor("u11", 2*time.Hour, true))
	profiles = append(profiles, profileFor("gone", "Gone", false))
	tasks = append(tasks, taskFor("gone", time.Hour, true), taskFor("gone", time.Hour, true), taskFor("gone", time.Hour, true))

	got := Leaderboard(profiles, tasks, domain.PeriodAll, now)
	if len(got) != LeaderboardSize {
		t.Fatalf("len = %d, want %d", len(got), LeaderboardSize)
	}
	want := []string{"u11", "u00", "u01", "u02"}
	for i, id := range want {
		if got[i].UserID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].UserID, id)
		}
	}
	for _, e := range got {
		if e.UserID == "gone" {
			t.Fatal("inactive profile ranked")
		}
	}
}

func TestTeamStats(t *testing.T) {
	profiles := []domain.Profile{profileFor("a", "A", true), profileFor("b", "B", true), profileFor("c", "C", false)}
	tasks := []domain.Task{
		taskFor("a", time.Hour, true),
		taskFor("a", 2*time.Hour, false),
		taskFor("b", 48*time.Hour, true),
	}

	got := TeamStats(profiles, tasks, now.Format(domain.DateLayout))
	want := domain.TeamStats{
		TotalUsers:          2,
		TotalTasks:          3,
		CompletedTasks:      2,
		PendingTasks:        1,
		TodayTasks:          2,
		TodayCompleted:      1,
		CompletionRate:      67,
		TodayCompletionRate: 50,
	}
	if got != want {
		t.Fatalf("TeamStats = %+v, want %+v", got, want)
	}

	if empty := TeamStats(nil, nil, "2025-03-10"); empty != (domain.TeamStats{}) {
		t.Fatalf("empty TeamStats = %+v", empty)
	}
}

func TestUserProgress(t *testing.T) {
	if got := UserProgress(nil); got != (domain.Progress{}) {
		t.Fatalf("UserProgress(nil) = %+v", got)
	}
	p := profileFor("a", "A", true)
	p.TotalTasks, p.CompletedTasks, p.Strikes = 3, 1, 2
	got := UserProgress(&p)
	if got.CompletionRate != 33 || got.Strikes != 2 || got.TotalTasks != 3 {
		t.Fatalf("UserProgress = %+v", got)
	}
}

func TestTeamMembersOrder(t *testing.T) {
	a := profileFor("a", "A", true)
	b := profileFor("b", "B", true)
	b.LastActive = now.Add(time.Hour)
	c := profileFor("c", "C", false)

	got := TeamMembers([]domain.Profile{a, b, c})
	if len(got) != 2 || got[0].UserID != "b" || got[1].UserID != "a" {
		t.Fatalf("TeamMembers = %+v", got)
	}
}

func TestStreak(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name  string
		tasks []domain.Task
		want  int
	}{
		{"none", nil, 0},
		{"today only", []domain.Task{taskFor("a", time.Hour, true)}, 1},
		{"ending yesterday", []domain.Task{taskFor("a", day, true), taskFor("a", 2*day, true)}, 2},
		{"gap", []domain.Task{taskFor("a", time.Hour, true), taskFor("a", 2*day, true)}, 1},
		{"pending ignored", []domain.Task{taskFor("a", time.Hour, false)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.tasks, now); got != tt.want {
				t.Fatalf("Streak = %d, want %d", got, tt.want)
			}
		})
	}
}
