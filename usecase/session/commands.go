package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/usecase"
	"github.com/fastygo/taskbot/usecase/broadcast"
	"github.com/fastygo/taskbot/usecase/replies"
)

func (e *Engine) registerCommands() {
	e.commands.RegisterCommand("start", e.cmdStart)
	e.commands.RegisterCommand("help", static(replies.Help))
	e.commands.RegisterCommand("ping", static(replies.Ping))
	e.commands.RegisterCommand("info", static(replies.Info))
	e.commands.RegisterCommand("time", e.cmdTime)
	e.commands.RegisterCommand("task", e.cmdTask)
	e.commands.RegisterCommand("mytasks", e.cmdMyTasks)
	e.commands.RegisterCommand("complete", e.cmdComplete)
	e.commands.RegisterCommand("edit", e.cmdEdit)
	e.commands.RegisterCommand("progress", e.cmdProgress)
	e.commands.RegisterCommand("stats", e.cmdStats)
	e.commands.RegisterCommand("profile", e.cmdProfile)
	e.commands.RegisterCommand("leaderboard", e.cmdLeaderboard)
	// strike checks admin rights itself: only the handle-taking form is privileged.
	e.commands.RegisterCommand("strike", e.cmdStrike)

	e.commands.RegisterAdminCommand("broadcast", e.cmdBroadcast)
	e.commands.RegisterAdminCommand("teamstats", e.cmdTeamStats)
	e.commands.RegisterAdminCommand("teammembers", e.cmdTeamMembers)
	e.commands.RegisterAdminCommand("reset", e.cmdReset)
}

// runCommand parses "/name args" or "!name args" and dispatches it.
func runCommand(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	call := parseCall(in.text)
	call.Handle = in.handle
	call.Admin = in.admin

	text, err := e.commands.Execute(ctx, call)
	if err != nil {
		return "", domain.StateMain, err
	}
	return text, domain.StateMain, nil
}

func parseCall(text string) usecase.Call {
	text = strings.TrimSpace(text)
	for _, p := range commandPrefix {
		if strings.HasPrefix(text, p) {
			text = strings.TrimPrefix(text, p)
			break
		}
	}
	name, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	return usecase.Call{
		Name: strings.ToLower(name),
		Args: strings.Fields(rest),
		Text: rest,
	}
}

func static(text string) usecase.CommandHandler {
	return func(context.Context, usecase.Call) (string, error) {
		return text, nil
	}
}

func (e *Engine) cmdStart(ctx context.Context, call usecase.Call) (string, error) {
	p, err := e.deps.Profiles.GetProfile(ctx, call.Handle)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return "", err
	}
	return replies.Greeting(displayName(p)), nil
}

func (e *Engine) cmdTime(context.Context, usecase.Call) (string, error) {
	return replies.Time(e.deps.Clock.Time()), nil
}

func (e *Engine) cmdTask(ctx context.Context, call usecase.Call) (string, error) {
	if call.Text == "" {
		return "❌ Usage: /task <description>", nil
	}
	t, err := e.deps.Tasks.CreateTask(ctx, call.Handle, call.Text)
	if err != nil {
		return "", err
	}
	return replies.TaskCreated(t.ID), nil
}

func (e *Engine) cmdMyTasks(ctx context.Context, call usecase.Call) (string, error) {
	tasks, err := e.deps.Tasks.ListTasks(ctx, call.Handle, "")
	if err != nil {
		return "", err
	}
	return replies.TaskList(tasks), nil
}

func (e *Engine) cmdComplete(ctx context.Context, call usecase.Call) (string, error) {
	if len(call.Args) == 0 {
		return "❌ Usage: /complete <task_id>", nil
	}
	if _, err := e.deps.Tasks.CompleteTask(ctx, call.Handle, call.Args[0]); err != nil {
		return "", err
	}
	return replies.TaskCompleted, nil
}

func (e *Engine) cmdEdit(ctx context.Context, call usecase.Call) (string, error) {
	id, description, ok := splitEdit(call.Text)
	if !ok {
		return "❌ Usage: /edit <task_id> <new description>", nil
	}
	if _, err := e.deps.Tasks.EditTask(ctx, call.Handle, id, description); err != nil {
		return "", err
	}
	return replies.TaskEdited, nil
}

func (e *Engine) cmdProgress(ctx context.Context, call usecase.Call) (string, error) {
	p, err := e.deps.Stats.UserProgress(ctx, call.Handle)
	if err != nil {
		return "", err
	}
	return replies.Progress(p), nil
}

func (e *Engine) cmdStats(ctx context.Context, call usecase.Call) (string, error) {
	p, err := e.deps.Stats.UserProgress(ctx, call.Handle)
	if err != nil {
		return "", err
	}
	streak, err := e.deps.Stats.Streak(ctx, call.Handle)
	if err != nil {
		return "", err
	}
	return replies.Stats(p, streak), nil
}

func (e *Engine) cmdProfile(ctx context.Context, call usecase.Call) (string, error) {
	p, err := e.deps.Profiles.GetProfile(ctx, call.Handle)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return "", err
	}
	return replies.Profile(call.Handle, p), nil
}

func (e *Engine) cmdLeaderboard(ctx context.Context, call usecase.Call) (string, error) {
	period := domain.PeriodAll
	if len(call.Args) > 0 {
		period = domain.ParsePeriod(call.Args[0])
	}
	entries, err := e.deps.Stats.Leaderboard(ctx, period)
	if err != nil {
		return "", err
	}
	return replies.Leaderboard(entries, period), nil
}

func (e *Engine) cmdStrike(ctx context.Context, call usecase.Call) (string, error) {
	if len(call.Args) == 0 {
		p, err := e.deps.Stats.UserProgress(ctx, call.Handle)
		if err != nil {
			return "", err
		}
		return replies.Strikes(p.Strikes), nil
	}
	if !call.Admin {
		return "", domain.ErrPermissionDenied
	}
	target := call.Args[0]
	count, err := e.deps.Tasks.AddStrike(ctx, target)
	if err != nil {
		return "", err
	}
	return replies.StrikeAdded(target, count), nil
}

func (e *Engine) cmdBroadcast(ctx context.Context, call usecase.Call) (string, error) {
	if call.Text == "" {
		return "❌ Usage: /broadcast <message>", nil
	}
	if e.deps.Broadcasts == nil {
		return "", domain.NewError(domain.ErrCodeUnavailable, "broadcasts disabled")
	}
	record, err := e.deps.Broadcasts.Start(ctx, call.Text, broadcast.Options{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📢 Broadcast sent to %d users", record.Recipients), nil
}

func (e *Engine) cmdTeamStats(ctx context.Context, _ usecase.Call) (string, error) {
	s, err := e.deps.Stats.TeamStats(ctx)
	if err != nil {
		return "", err
	}
	return replies.TeamStats(s), nil
}

func (e *Engine) cmdTeamMembers(ctx context.Context, _ usecase.Call) (string, error) {
	members, err := e.deps.Stats.TeamMembers(ctx)
	if err != nil {
		return "", err
	}
	return replies.TeamMembers(members), nil
}

// cmdReset runs while the caller's conversation lock is held, so the
// caller's own session is saved by Handle instead of relocking it.
func (e *Engine) cmdReset(ctx context.Context, call usecase.Call) (string, error) {
	if len(call.Args) == 0 {
		return "❌ Usage: /reset <handle>", nil
	}
	target := call.Args[0]
	if target != call.Handle {
		if err := e.ResetSession(ctx, target); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("🔄 Session reset for %s", target), nil
}
