package replies

import (
	"fmt"
	"strings"

	"github.com/fastygo/taskbot/domain"
)

// MorningReminder lists today's pending tasks, or encourages planning when there are none.
func MorningReminder(name string, pending []domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌅 *Good Morning %s!*\n\n", name)
	if len(pending) == 0 {
		b.WriteString("🎉 Great! You have no pending tasks for today!\n")
		b.WriteString("💡 Use !task [description] to add new tasks.\n\n")
		b.WriteString(Motivation())
		return b.String()
	}
	fmt.Fprintf(&b, "📋 You have %d pending task(s) for today:\n\n", len(pending))
	for i, task := range pending {
		fmt.Fprintf(&b, "%d. %s\n", i+1, task.Description)
	}
	b.WriteString("\n💪 Complete them and use !complete [task_id] to mark as done!\n")
	b.WriteString(Motivation())
	return b.String()
}

// EveningCheckIn summarizes the tasks dated today.
func EveningCheckIn(name string, today []domain.Task) string {
	var completed []domain.Task
	for _, task := range today {
		if task.IsCompleted() {
			completed = append(completed, task)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌆 *Evening Check-in %s!*\n\n", name)
	b.WriteString("📊 Today's Summary:\n")
	fmt.Fprintf(&b, "✅ Completed: %d\n", len(completed))
	fmt.Fprintf(&b, "⏳ Pending: %d\n\n", len(today)-len(completed))
	if len(completed) == 0 {
		b.WriteString("💪 Don't worry! Tomorrow is a new opportunity!\n")
		b.WriteString("Use !task [description] to plan for tomorrow.\n\n")
		b.WriteString(Motivation())
		return b.String()
	}
	b.WriteString("🎉 Great work! You completed:\n")
	for i, task := range completed {
		fmt.Fprintf(&b, "%d. %s\n", i+1, task.Description)
	}
	b.WriteString("\n" + Motivation())
	return b.String()
}

// WeeklyStrikeReport tells a user where they stand. maxStrikes of 0 means no limit.
func WeeklyStrikeReport(strikes, maxStrikes int) string {
	var b strings.Builder
	if strikes <= 0 {
		b.WriteString("🎉 *Weekly Strike Report*\n\n")
		b.WriteString("No strikes this week. Keep it up!\n\n")
		b.WriteString(Motivation())
		return b.String()
	}
	b.WriteString("⚠️ *Weekly Strike Report*\n\n")
	fmt.Fprintf(&b, "You have %d strike(s) this week.\n", strikes)
	if maxStrikes > 0 && strikes >= maxStrikes {
		fmt.Fprintf(&b, "🚫 You have reached the limit of %d strikes.\n", maxStrikes)
	}
	b.WriteString("Focus on completing your tasks to avoid more strikes!\n\n")
	b.WriteString(Motivation())
	return b.String()
}
