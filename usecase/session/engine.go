// Package session runs the per-user conversation state machine.
package session

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
	"github.com/fastygo/taskbot/usecase/broadcast"
	"github.com/fastygo/taskbot/usecase/profile"
	"github.com/fastygo/taskbot/usecase/replies"
	"github.com/fastygo/taskbot/usecase/stats"
	"github.com/fastygo/taskbot/usecase/task"
)

// ErrNotProcessable is returned for self, group or empty messages.
var ErrNotProcessable = domain.NewError(domain.ErrCodeInvalid, "message not processable")

// Reply is the single answer produced for one inbound message.
type Reply struct {
	To   string
	Text string
}

type Deps struct {
	Sessions   repository.SessionRepository
	Profiles   *profile.UseCase
	Tasks      *task.UseCase
	Stats      *stats.UseCase
	Broadcasts *broadcast.UseCase
	Clock      usecase.Clock
	// AdminHandle may run the administrative commands.
	AdminHandle string
}

type Engine struct {
	deps     Deps
	commands *usecase.Dispatcher
	locks    *keylock.Locker
	logger   *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		deps:     deps,
		commands: usecase.NewDispatcher(),
		locks:    keylock.New(),
		logger:   logger,
	}
	e.registerCommands()
	return e
}

// Commands lists the chat commands the engine understands.
func (e *Engine) Commands() []string {
	return e.commands.Names()
}

// Handle processes one inbound message and returns exactly one reply.
// Messages from the same handle are processed one at a time, in arrival order.
func (e *Engine) Handle(ctx context.Context, msg domain.Message) (Reply, error) {
	if !msg.Processable() {
		return Reply{}, ErrNotProcessable
	}
	handle := msg.Sender

	unlock := e.locks.Lock(handle)
	defer unlock()

	reply := Reply{To: handle}
	current, err := e.deps.Sessions.Get(ctx, handle)
	switch {
	case err == nil:
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		known, err := e.knownUser(ctx, handle)
		if err != nil {
			e.logger.Error("load user", zap.String("user", handle), zap.Error(err))
			reply.Text = replies.StoreDown
			return reply, nil
		}
		if !known {
			reply.Text = e.firstContact(ctx, handle)
			return reply, nil
		}
		// Expired or never-written session of a registered user.
		current = nil
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		e.logger.Warn("unreadable session, resetting to main", zap.String("user", handle), zap.Error(err))
		current = nil
	default:
		e.logger.Error("load session", zap.String("user", handle), zap.Error(err))
		reply.Text = replies.StoreDown
		return reply, nil
	}

	in := turn{
		handle:  handle,
		text:    strings.TrimSpace(msg.Text),
		admin:   e.isAdmin(handle),
		state:   current.Current(),
		profile: e.touch(ctx, handle),
	}
	class := classify(in.state, in.text)

	tr, ok := transitions[transitionKey{state: in.state, class: class}]
	if !ok {
		tr = resetToMain
	}
	text, next, err := tr(ctx, e, in)
	if err != nil {
		var keep bool
		text, next, keep = e.replyForError(in.state, err)
		if keep {
			reply.Text = text
			return reply, nil
		}
	}

	if err := e.moveTo(ctx, handle, current, next); err != nil {
		e.logger.Error("save session", zap.String("user", handle), zap.Error(err))
		reply.Text = replies.StoreDown
		return reply, nil
	}
	reply.Text = text
	return reply, nil
}

// ResetSession returns handle's conversation to the main menu.
func (e *Engine) ResetSession(ctx context.Context, handle string) error {
	unlock := e.locks.Lock(handle)
	defer unlock()
	return e.saveState(ctx, handle, domain.StateMain)
}

// knownUser reports whether handle already has a profile.
func (e *Engine) knownUser(ctx context.Context, handle string) (bool, error) {
	_, err := e.deps.Profiles.GetProfile(ctx, handle)
	switch {
	case err == nil:
		return true, nil
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (e *Engine) firstContact(ctx context.Context, handle string) string {
	if err := e.saveState(ctx, handle, domain.StateNameInput); err != nil {
		e.logger.Error("save session", zap.String("user", handle), zap.Error(err))
		return replies.StoreDown
	}
	if _, _, err := e.deps.Profiles.Register(ctx, handle); err != nil {
		e.logger.Error("register user", zap.String("user", handle), zap.Error(err))
		return replies.StoreDown
	}
	return replies.Registered
}

// touch records activity. A failure here never blocks the conversation.
func (e *Engine) touch(ctx context.Context, handle string) *domain.Profile {
	p, err := e.deps.Profiles.Touch(ctx, handle)
	if err == nil {
		return p
	}
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		p, _, err = e.deps.Profiles.Register(ctx, handle)
		if err == nil {
			return p
		}
	}
	e.logger.Warn("touch user", zap.String("user", handle), zap.Error(err))
	return nil
}

func (e *Engine) moveTo(ctx context.Context, handle string, current *domain.Session, next domain.State) error {
	if current != nil && current.Current() == next {
		return nil
	}
	return e.saveState(ctx, handle, next)
}

func (e *Engine) saveState(ctx context.Context, handle string, state domain.State) error {
	s := domain.MainSession(handle)
	if state != domain.StateMain {
		s = domain.AwaitingSession(handle, state)
	}
	s.UpdatedAt = e.deps.Clock.Time()
	return e.deps.Sessions.Save(ctx, s)
}

// replyForError turns an effect failure into the user-facing reply and the
// state to continue in. keep reports that the stored session must not change.
func (e *Engine) replyForError(state domain.State, err error) (text string, next domain.State, keep bool) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnavailable):
		e.logger.Error("store failure", zap.String("state", string(state)), zap.Error(err))
		return replies.StoreDown, state, true
	case errors.Is(err, usecase.ErrUnknownCommand):
		return replies.UnknownCommand, state, true
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return replies.PermissionDenied, state, true
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		if state == domain.StateEditTask {
			return replies.EditFormat, state, true
		}
		return replies.Error(domain.ErrorMessage(err, "invalid input")), state, true
	case domain.IsDomainError(err, domain.ErrCodeNotFound),
		domain.IsDomainError(err, domain.ErrCodeAlreadyCompleted):
		return replies.Error(domain.ErrorMessage(err, "request failed")), domain.StateMain, false
	default:
		e.logger.Error("handle message", zap.String("state", string(state)), zap.Error(err))
		return replies.Failure, state, true
	}
}

func (e *Engine) isAdmin(handle string) bool {
	return e.deps.AdminHandle != "" && handle == e.deps.AdminHandle
}

func displayName(p *domain.Profile) string {
	if p == nil || p.UserName == "" {
		return domain.DefaultUserName
	}
	return p.UserName
}
