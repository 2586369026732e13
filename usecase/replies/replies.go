// Package replies holds the user-facing texts of the bot.
package replies

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/fastygo/taskbot/domain"
)

const (
	BotName    = "Task Manager Bot"
	BotVersion = "2.0.0"
)

const Menu = "📱 *Main Menu:*\n\n" +
	"1️⃣ Add Task\n2️⃣ My Tasks\n3️⃣ Complete Task\n4️⃣ Edit Task\n5️⃣ My Progress\n" +
	"6️⃣ My Stats\n7️⃣ My Profile\n8️⃣ Leaderboard\n9️⃣ Help\n0️⃣ Exit\n\n" +
	"*Reply with number to select option*"

var Help = "🤖 *" + BotName + " Help:*\n\n" +
	"📱 *Menu Options:*\n" +
	"• Add Task - Add new daily task\n" +
	"• My Tasks - View all your tasks\n" +
	"• Complete Task - Mark task as complete\n" +
	"• Edit Task - Edit existing task\n" +
	"• My Progress - View your progress\n" +
	"• My Stats - Detailed statistics\n" +
	"• My Profile - Your profile info\n" +
	"• Leaderboard - Global rankings\n" +
	"• Help - Show this help\n" +
	"• Exit - Close menu\n\n" +
	"*Bot Version:* " + BotVersion

var Info = "🤖 *Bot Information:*\n" +
	"*Name:* " + BotName + "\n" +
	"*Version:* " + BotVersion + "\n" +
	"*Status:* Online ✅"

const (
	Registered       = "🎉 Welcome! You're now registered with Task Manager Bot!\n\nPlease enter your name to continue:"
	Nudge            = "👋 Hello! How can I help you today?"
	Goodbye          = "👋 Thank you for using Task Manager Bot! Type any message to start again."
	Ping             = "🏓 Pong! Bot is online and working!"
	Unknown          = "❓ Invalid option! Please select from menu (1-9, 0 to exit)"
	UnknownCommand   = "❓ Unknown command! Send /help to see what I can do."
	TaskAdded        = "✅ Task added successfully!"
	TaskCompleted    = "🎉 Task marked as completed!"
	TaskEdited       = "✏️ Task updated successfully!"
	NoTasks          = "📝 No tasks found!"
	NoStrikes        = "🎉 Great! You have no strikes!"
	CheckInHint      = "📋 Use the 'Add Task' command to add your daily tasks!"
	StoreDown        = "❌ Database error. Please try again later."
	Failure          = "❌ Sorry, something went wrong!"
	NoLeaderboard    = "📊 No data available for leaderboard"
	NoMembers        = "📊 No team members found!"
	AddTaskPrompt    = "📝 *Add New Task:*\n\nPlease type your task description:\n\n*Example:* Complete project documentation\n\n*Type 'back' to return to menu*"
	CompletePrompt   = "✅ *Complete Task:*\n\nPlease provide task ID to complete:\n\n*Type 'back' to return to menu*"
	EditPrompt       = "✏️ *Edit Task:*\n\nPlease provide task ID and new description:\n\n*Format:* task_id new_description\n*Example:* abc123 Complete updated documentation\n\n*Type 'back' to return to menu*"
	EditFormat       = "❌ Invalid format! Please provide task ID and new description.\n\n" + EditPrompt
	PermissionDenied = "❌ You don't have permission to use this command!"
)

var motivational = []string{
	"💪 Keep pushing forward!",
	"🚀 You're doing great!",
	"⭐ Every task completed is a step closer to success!",
	"🔥 Consistency is the key to success!",
	"💎 Hard work pays off!",
}

// Motivation picks a random motivational line.
func Motivation() string {
	return motivational[rand.IntN(len(motivational))]
}

func Greeting(name string) string {
	return fmt.Sprintf("👋 Hello %s! %s", name, Menu)
}

func NameUpdated(name string) string {
	return fmt.Sprintf("✅ Name updated to: %s\n\n%s", name, Menu)
}

func TaskCreated(id string) string {
	return fmt.Sprintf("%s\n📝 Task ID: %s", TaskAdded, id)
}

func Error(message string) string {
	return "❌ Error: " + message
}

func Strikes(count int) string {
	if count <= 0 {
		return NoStrikes
	}
	return fmt.Sprintf("⚠️ You have %d strikes!", count)
}

func StrikeAdded(handle string, count int) string {
	return fmt.Sprintf("⚠️ Strike added to %s. Total strikes: %d", handle, count)
}

func Time(now time.Time) string {
	return "🕐 Current time: " + now.Format("2 January 2006, 03:04:05 PM")
}

func TaskList(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return NoTasks
	}
	var b strings.Builder
	b.WriteString("📋 *Your Tasks:*\n\n")
	for i, task := range tasks {
		status := "⏳"
		if task.IsCompleted() {
			status = "✅"
		}
		fmt.Fprintf(&b, "%d. %s %s\n   ID: %s | %s\n\n", i+1, status, task.Description, task.ID, task.Date)
	}
	return strings.TrimRight(b.String(), "\n")
}

func Progress(p domain.Progress) string {
	return fmt.Sprintf("📊 *Your Progress:*\n\n✅ Completed Tasks: %d\n📝 Total Tasks: %d\n📈 Completion Rate: %d%%\n⚠️ Strikes: %d\n\n%s",
		p.CompletedTasks, p.TotalTasks, p.CompletionRate, p.Strikes, Motivation())
}

func Stats(p domain.Progress, streak int) string {
	return fmt.Sprintf("📊 *Your Statistics:*\n\n✅ Completed Tasks: %d\n📝 Total Tasks: %d\n📈 Completion Rate: %d%%\n⚠️ Strikes: %d\n🏆 Current Streak: %d days\n\n%s",
		p.CompletedTasks, p.TotalTasks, p.CompletionRate, p.Strikes, streak, Motivation())
}

func Profile(handle string, p *domain.Profile) string {
	name, registered, active, status := "Unknown", "Unknown", "Unknown", "🔴 Inactive"
	if p != nil {
		name = p.UserName
		registered = formatDate(p.RegisteredAt)
		active = formatDate(p.LastActive)
		if p.IsActive() {
			status = "🟢 Active"
		}
	}
	return fmt.Sprintf("👤 *Your Profile:*\n\n📛 Name: %s\n🆔 User ID: %s\n📅 Registered: %s\n🕐 Last Active: %s\n📊 Status: %s\n\n%s",
		name, handle, registered, active, status, Motivation())
}

func Leaderboard(entries []domain.LeaderboardEntry, period domain.Period) string {
	if len(entries) == 0 {
		return NoLeaderboard
	}
	var b strings.Builder
	switch period {
	case domain.PeriodWeek:
		b.WriteString("🏆 *Weekly Leaderboard:*\n\n")
	case domain.PeriodMonth:
		b.WriteString("🏆 *Monthly Leaderboard:*\n\n")
	default:
		b.WriteString("🏆 *Global Leaderboard:*\n\n")
	}
	for i, e := range entries {
		medal := "🏅"
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		fmt.Fprintf(&b, "%s %s\n   ✅ %d completed | %d%% rate\n\n", medal, e.Name, e.CompletedTasks, e.CompletionRate)
	}
	return strings.TrimRight(b.String(), "\n")
}

func TeamStats(s domain.TeamStats) string {
	return fmt.Sprintf("📊 *Team Statistics:*\n\n👥 Total Users: %d\n📝 Total Tasks: %d\n✅ Completed: %d\n⏳ Pending: %d\n📈 Completion Rate: %d%%\n\n"+
		"📅 *Today's Stats:*\n📝 Today's Tasks: %d\n✅ Today's Completed: %d\n📈 Today's Rate: %d%%",
		s.TotalUsers, s.TotalTasks, s.CompletedTasks, s.PendingTasks, s.CompletionRate,
		s.TodayTasks, s.TodayCompleted, s.TodayCompletionRate)
}

func TeamMembers(members []domain.TeamMember) string {
	if len(members) == 0 {
		return NoMembers
	}
	var b strings.Builder
	b.WriteString("👥 *Team Members:*\n\n")
	for i, m := range members {
		fmt.Fprintf(&b, "%d. 🟢 %s\n   📊 %d/%d tasks | %d strikes\n   🕐 Last Active: %s\n\n",
			i+1, m.UserName, m.CompletedTasks, m.TotalTasks, m.Strikes, formatDate(m.LastActive))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2 January 2006, 03:04 PM")
}
