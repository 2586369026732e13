package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/infrastructure/buffer"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/internal/testutil"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/repository/document"
	"github.com/fastygo/taskbot/usecase/task"
)

func openBuffer(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	if err != nil {
		t.Fatalf("buffer.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type switchHealth struct {
	mu     sync.Mutex
	online bool
}

func (h *switchHealth) IsOnline() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online
}

func TestOutboxBuffersAndDrains(t *testing.T) {
	gateway := &testutil.Sender{Fail: map[string]bool{"alice": true}}
	outbox := NewOutbox(openBuffer(t), gateway, nil, nil, OutboxConfig{MaxRetries: 3})
	ctx := context.Background()

	if err := outbox.Send(ctx, "alice", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := outbox.As(buffer.KindBroadcast).Send(ctx, "bob", "news"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := outbox.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1 buffered message", got)
	}

	gateway.Fail["alice"] = false
	if err := outbox.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := outbox.Size(); got != 0 {
		t.Fatalf("Size() = %d after drain", got)
	}
	if got := gateway.To("alice"); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("alice received %q", got)
	}
}

func TestOutboxDropsAfterMaxRetries(t *testing.T) {
	gateway := &testutil.Sender{Fail: map[string]bool{"alice": true}}
	outbox := NewOutbox(openBuffer(t), gateway, nil, nil, OutboxConfig{MaxRetries: 2})
	ctx := context.Background()

	_ = outbox.Send(ctx, "alice", "hello")
	_ = outbox.Drain(ctx)
	if got := outbox.Size(); got != 1 {
		t.Fatalf("Size() = %d after first retry, want 1", got)
	}
	_ = outbox.Drain(ctx)
	if got := outbox.Size(); got != 0 {
		t.Fatalf("Size() = %d, message should be dropped", got)
	}
}

func TestOutboxSkipsGatewayWhileOffline(t *testing.T) {
	gateway := &testutil.Sender{}
	health := &switchHealth{}
	outbox := NewOutbox(openBuffer(t), gateway, health, nil, OutboxConfig{})
	ctx := context.Background()

	_ = outbox.Send(ctx, "alice", "hello")
	_ = outbox.Drain(ctx)
	if len(gateway.Messages()) != 0 || outbox.Size() != 1 {
		t.Fatalf("delivered while offline: %+v", gateway.Messages())
	}

	health.mu.Lock()
	health.online = true
	health.mu.Unlock()
	_ = outbox.Drain(ctx)
	if len(gateway.Messages()) != 1 || outbox.Size() != 0 {
		t.Fatalf("not delivered once online: %+v", gateway.Messages())
	}
}

func TestOutboxRefusesWhenFull(t *testing.T) {
	gateway := &testutil.Sender{Fail: map[string]bool{"alice": true}}
	outbox := NewOutbox(openBuffer(t), gateway, nil, nil, OutboxConfig{MaxBuffered: 1})
	ctx := context.Background()

	if err := outbox.Send(ctx, "alice", "one"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := outbox.Send(ctx, "alice", "two"); err != ErrOutboxFull {
		t.Fatalf("second send err = %v, want ErrOutboxFull", err)
	}
	if outbox.Size() != 1 {
		t.Fatalf("size = %d", outbox.Size())
	}
}

type schedulerEnv struct {
	scheduler *Scheduler
	users     repository.ProfileRepository
	settings  repository.SettingsRepository
	tasks     *task.UseCase
	sender    *testutil.Sender
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	t.Helper()
	store := testutil.NewBoltStore(t)
	clock := testutil.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)).Usecase()
	users := document.NewProfileRepository(store, nil)
	settings := document.NewSettingsRepository(store)
	tasks := task.New(document.NewTaskRepository(store, nil), users, keylock.New(), clock, nil)
	sender := &testutil.Sender{}
	return &schedulerEnv{
		scheduler: NewScheduler(users, tasks, settings, sender, clock, nil, SchedulerConfig{}),
		users:     users,
		settings:  settings,
		tasks:     tasks,
		sender:    sender,
	}
}

func (e *schedulerEnv) addUser(t *testing.T, handle, name string, active bool) {
	t.Helper()
	p := domain.NewProfile(handle, time.Now())
	p.UserName = name
	p.SetActive(active)
	if err := e.users.Save(context.Background(), p); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestMorningReminder(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice", "Alice", true)
	env.addUser(t, "bob", "Bob", true)
	env.addUser(t, "gone", "Gone", false)

	pending, _ := env.tasks.CreateTask(ctx, "alice", "write report")
	done, _ := env.tasks.CreateTask(ctx, "alice", "standup")
	_, _ = env.tasks.CompleteTask(ctx, "alice", done.ID)

	report, err := env.scheduler.RunMorningReminder(ctx)
	if err != nil {
		t.Fatalf("RunMorningReminder: %v", err)
	}
	if report.Sent != 2 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}

	alice := env.sender.To("alice")
	if len(alice) != 1 || !strings.Contains(alice[0], "1 pending task(s)") || !strings.Contains(alice[0], pending.Description) {
		t.Fatalf("alice got %q", alice)
	}
	if strings.Contains(alice[0], "standup") {
		t.Fatal("completed task listed as pending")
	}
	bob := env.sender.To("bob")
	if len(bob) != 1 || !strings.Contains(bob[0], "no pending tasks") {
		t.Fatalf("bob got %q", bob)
	}
	if len(env.sender.To("gone")) != 0 {
		t.Fatal("inactive user reminded")
	}
}

func TestEveningCheckInContinuesPastFailures(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice", "Alice", true)
	env.addUser(t, "bob", "Bob", true)
	env.sender.Fail = map[string]bool{"alice": true}

	report, err := env.scheduler.RunEveningCheckIn(ctx)
	if err != nil {
		t.Fatalf("RunEveningCheckIn: %v", err)
	}
	if report.Sent != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if bob := env.sender.To("bob"); len(bob) != 1 || !strings.Contains(bob[0], "Completed: 0") {
		t.Fatalf("bob got %q", bob)
	}
}

func TestWeeklyStrikeReport(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice", "Alice", true)
	env.addUser(t, "bob", "Bob", true)
	_, _ = env.tasks.AddStrike(ctx, "alice")
	_, _ = env.tasks.AddStrike(ctx, "alice")
	_ = env.settings.Save(ctx, &domain.Settings{MaxStrikes: 2})

	if _, err := env.scheduler.Run(ctx, JobWeekly); err != nil {
		t.Fatalf("Run: %v", err)
	}
	alice := env.sender.To("alice")
	if len(alice) != 1 || !strings.Contains(alice[0], "2 strike(s)") || !strings.Contains(alice[0], "limit of 2") {
		t.Fatalf("alice got %q", alice)
	}
	if bob := env.sender.To("bob"); len(bob) != 1 || !strings.Contains(bob[0], "No strikes") {
		t.Fatalf("bob got %q", bob)
	}
}

func TestTriggerUnknownJob(t *testing.T) {
	env := newSchedulerEnv(t)
	if err := env.scheduler.Trigger("lunch"); err != ErrUnknownJob {
		t.Fatalf("Trigger err = %v", err)
	}
	if _, err := env.scheduler.Run(context.Background(), "lunch"); err != ErrUnknownJob {
		t.Fatalf("Run err = %v", err)
	}
}

func TestDailySpec(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"08:30", "30 8 * * *", true},
		{" 18:05 ", "5 18 * * *", true},
		{"24:00", "", false},
		{"9", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := dailySpec(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("dailySpec(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
