package session

import (
	"context"
	"strings"
	"unicode"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/usecase/replies"
)

type inputClass string

const (
	classEscape    inputClass = "escape"
	classPayload   inputClass = "payload"
	classSelection inputClass = "selection"
	classCommand   inputClass = "command"
	classGreeting  inputClass = "greeting"
	classCheckIn   inputClass = "checkin"
	classText      inputClass = "text"
)

var (
	greetingWords  = map[string]struct{}{"hello": {}, "hi": {}, "hey": {}, "start": {}}
	checkInPhrases = []string{"daily task", "task check", "aaj kya kaam kiye"}
	commandPrefix  = []string{"/", "!"}
)

// turn is one message as seen by a transition.
type turn struct {
	handle  string
	text    string
	admin   bool
	state   domain.State
	profile *domain.Profile
}

// transition performs the effect for one input and names the next state.
type transition func(ctx context.Context, e *Engine, in turn) (string, domain.State, error)

type transitionKey struct {
	state domain.State
	class inputClass
}

var transitions = map[transitionKey]transition{
	{domain.StateMain, classSelection}: selectOption,
	{domain.StateMain, classCommand}:   runCommand,
	{domain.StateMain, classGreeting}:  greet,
	{domain.StateMain, classCheckIn}:   checkIn,
	{domain.StateMain, classText}:      nudge,

	{domain.StateNameInput, classEscape}:     backToMenu,
	{domain.StateNameInput, classPayload}:    setName,
	{domain.StateAddTask, classEscape}:       backToMenu,
	{domain.StateAddTask, classPayload}:      addTask,
	{domain.StateCompleteTask, classEscape}:  backToMenu,
	{domain.StateCompleteTask, classPayload}: completeTask,
	{domain.StateEditTask, classEscape}:      backToMenu,
	{domain.StateEditTask, classPayload}:     editTask,
}

// classify maps raw text to an input class. Awaiting states only know
// escape and payload.
func classify(state domain.State, text string) inputClass {
	lower := strings.ToLower(strings.TrimSpace(text))
	if state != domain.StateMain {
		if lower == "back" || lower == "0" {
			return classEscape
		}
		return classPayload
	}
	switch {
	case isNumber(lower):
		return classSelection
	case hasCommandPrefix(lower):
		return classCommand
	case isGreeting(lower):
		return classGreeting
	case isCheckIn(lower):
		return classCheckIn
	default:
		return classText
	}
}

// isNumber reports a single-digit menu selection.
func isNumber(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func hasCommandPrefix(s string) bool {
	for _, p := range commandPrefix {
		if strings.HasPrefix(s, p) && len(s) > len(p) {
			return true
		}
	}
	return false
}

func isGreeting(s string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, ok := greetingWords[w]; ok {
			return true
		}
	}
	return false
}

func isCheckIn(s string) bool {
	for _, phrase := range checkInPhrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}

// menuOptions maps a main-menu number to its effect.
var menuOptions = map[string]transition{
	"1": prompt(domain.StateAddTask, replies.AddTaskPrompt),
	"2": showTasks,
	"3": prompt(domain.StateCompleteTask, replies.CompletePrompt),
	"4": prompt(domain.StateEditTask, replies.EditPrompt),
	"5": showProgress,
	"6": showStats,
	"7": showProfile,
	"8": showLeaderboard,
	"9": func(context.Context, *Engine, turn) (string, domain.State, error) {
		return replies.Help, domain.StateMain, nil
	},
	"0": func(context.Context, *Engine, turn) (string, domain.State, error) {
		return replies.Goodbye, domain.StateMain, nil
	},
}

func selectOption(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	option, ok := menuOptions[in.text]
	if !ok {
		return replies.Unknown, domain.StateMain, nil
	}
	return option(ctx, e, in)
}

func prompt(state domain.State, text string) transition {
	return func(context.Context, *Engine, turn) (string, domain.State, error) {
		return text, state, nil
	}
}

func greet(_ context.Context, _ *Engine, in turn) (string, domain.State, error) {
	return replies.Greeting(displayName(in.profile)), domain.StateMain, nil
}

func checkIn(context.Context, *Engine, turn) (string, domain.State, error) {
	return replies.CheckInHint, domain.StateMain, nil
}

func nudge(context.Context, *Engine, turn) (string, domain.State, error) {
	return replies.Nudge + "\n\n" + replies.Menu, domain.StateMain, nil
}

func backToMenu(context.Context, *Engine, turn) (string, domain.State, error) {
	return replies.Menu, domain.StateMain, nil
}

// resetToMain handles any (state, class) pair without an entry.
func resetToMain(_ context.Context, _ *Engine, in turn) (string, domain.State, error) {
	return replies.Greeting(displayName(in.profile)), domain.StateMain, nil
}

func setName(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	if _, _, err := e.deps.Profiles.Register(ctx, in.handle); err != nil {
		return "", in.state, err
	}
	p, err := e.deps.Profiles.Rename(ctx, in.handle, in.text)
	if err != nil {
		return "", in.state, err
	}
	return replies.NameUpdated(p.UserName), domain.StateMain, nil
}

func addTask(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	t, err := e.deps.Tasks.CreateTask(ctx, in.handle, in.text)
	if err != nil {
		return "", in.state, err
	}
	return replies.TaskCreated(t.ID), domain.StateMain, nil
}

func completeTask(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	if _, err := e.deps.Tasks.CompleteTask(ctx, in.handle, in.text); err != nil {
		return "", in.state, err
	}
	return replies.TaskCompleted, domain.StateMain, nil
}

func editTask(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	id, description, ok := splitEdit(in.text)
	if !ok {
		return "", in.state, domain.ErrInvalidFormat
	}
	if _, err := e.deps.Tasks.EditTask(ctx, in.handle, id, description); err != nil {
		return "", in.state, err
	}
	return replies.TaskEdited, domain.StateMain, nil
}

// splitEdit parses "<task id> <new description>".
func splitEdit(text string) (id, description string, ok bool) {
	id, description, found := strings.Cut(strings.TrimSpace(text), " ")
	description = strings.TrimSpace(description)
	if !found || id == "" || description == "" {
		return "", "", false
	}
	return id, description, true
}

func showTasks(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	tasks, err := e.deps.Tasks.ListTasks(ctx, in.handle, "")
	if err != nil {
		return "", in.state, err
	}
	return replies.TaskList(tasks), domain.StateMain, nil
}

func showProgress(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	p, err := e.deps.Stats.UserProgress(ctx, in.handle)
	if err != nil {
		return "", in.state, err
	}
	return replies.Progress(p), domain.StateMain, nil
}

func showStats(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	p, err := e.deps.Stats.UserProgress(ctx, in.handle)
	if err != nil {
		return "", in.state, err
	}
	streak, err := e.deps.Stats.Streak(ctx, in.handle)
	if err != nil {
		return "", in.state, err
	}
	return replies.Stats(p, streak), domain.StateMain, nil
}

func showProfile(_ context.Context, _ *Engine, in turn) (string, domain.State, error) {
	return replies.Profile(in.handle, in.profile), domain.StateMain, nil
}

func showLeaderboard(ctx context.Context, e *Engine, in turn) (string, domain.State, error) {
	entries, err := e.deps.Stats.Leaderboard(ctx, domain.PeriodAll)
	if err != nil {
		return "", in.state, err
	}
	return replies.Leaderboard(entries, domain.PeriodAll), domain.StateMain, nil
}
