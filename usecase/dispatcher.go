package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastygo/taskbot/domain"
)

// Call is a single parsed chat command.
type Call struct {
	Handle string
	Name   string
	Args   []string
	Text   string // everything after the command name, trimmed
	Admin  bool
}

type CommandHandler func(ctx context.Context, call Call) (string, error)

// ErrUnknownCommand is returned for names nobody registered.
var ErrUnknownCommand = domain.NewError(domain.ErrCodeNotFound, "unknown command")

type command struct {
	handler   CommandHandler
	adminOnly bool
}

// Dispatcher routes chat commands to their handlers and enforces admin-only entries.
type Dispatcher struct {
	commands map[string]command
	mu       sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		commands: make(map[string]command),
	}
}

func (d *Dispatcher) RegisterCommand(name string, handler CommandHandler) {
	d.register(name, handler, false)
}

func (d *Dispatcher) RegisterAdminCommand(name string, handler CommandHandler) {
	d.register(name, handler, true)
}

func (d *Dispatcher) register(name string, handler CommandHandler, adminOnly bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[name] = command{handler: handler, adminOnly: adminOnly}
}

func (d *Dispatcher) Execute(ctx context.Context, call Call) (string, error) {
	d.mu.RLock()
	cmd, ok := d.commands[call.Name]
	d.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("command %q: %w", call.Name, ErrUnknownCommand)
	}
	if cmd.adminOnly && !call.Admin {
		return "", domain.ErrPermissionDenied
	}
	return cmd.handler(ctx, call)
}

// Names lists the registered commands in alphabetical order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
