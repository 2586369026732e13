package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/internal/testutil"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/repository/document"
	"github.com/fastygo/taskbot/usecase/broadcast"
	"github.com/fastygo/taskbot/usecase/profile"
	"github.com/fastygo/taskbot/usecase/replies"
	"github.com/fastygo/taskbot/usecase/stats"
	"github.com/fastygo/taskbot/usecase/task"
)

const admin = "admin@s.whatsapp.net"

type harness struct {
	engine   *Engine
	sessions repository.SessionRepository
	users    repository.ProfileRepository
	tasks    *task.UseCase
	sender   *testutil.Sender
}

func newHarness(t *testing.T, store repository.DocumentStore) *harness {
	t.Helper()
	clock := testutil.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)).Usecase()
	locks := keylock.New()

	users := document.NewProfileRepository(store, nil)
	taskRepo := document.NewTaskRepository(store, nil)
	sessions := document.NewSessionRepository(store)
	sender := &testutil.Sender{}

	tasks := task.New(taskRepo, users, locks, clock, nil)
	engine := New(Deps{
		Sessions:    sessions,
		Profiles:    profile.New(users, locks, clock, nil),
		Tasks:       tasks,
		Stats:       stats.New(users, taskRepo, clock, nil),
		Broadcasts:  broadcast.New(users, document.NewBroadcastRepository(store, nil), sender, clock, nil, broadcast.Config{}),
		Clock:       clock,
		AdminHandle: admin,
	}, nil)

	return &harness{engine: engine, sessions: sessions, users: users, tasks: tasks, sender: sender}
}

func (h *harness) send(t *testing.T, from, text string) string {
	t.Helper()
	reply, err := h.engine.Handle(context.Background(), domain.Message{Sender: from, Text: text})
	if err != nil {
		t.Fatalf("Handle(%q, %q) failed: %v", from, text, err)
	}
	if reply.To != from {
		t.Fatalf("reply addressed to %q, want %q", reply.To, from)
	}
	return reply.Text
}

func (h *harness) state(t *testing.T, handle string) domain.State {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), handle)
	if err != nil {
		t.Fatalf("load session for %s: %v", handle, err)
	}
	return s.Current()
}

// register walks handle through first contact and naming.
func (h *harness) register(t *testing.T, handle, name string) {
	t.Helper()
	h.send(t, handle, "hi")
	h.send(t, handle, name)
}

func (h *harness) setState(t *testing.T, handle string, state domain.State) {
	t.Helper()
	s := domain.AwaitingSession(handle, state)
	if state == domain.StateMain {
		s = domain.MainSession(handle)
	}
	if err := h.sessions.Save(context.Background(), s); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func TestFirstContactRegistersUser(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))

	if got := h.send(t, "u1", "/help"); got != replies.Registered {
		t.Fatalf("first reply = %q, want registration prompt", got)
	}
	if got := h.state(t, "u1"); got != domain.StateNameInput {
		t.Fatalf("state = %s, want name_input", got)
	}
	p, err := h.users.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if p.UserName != domain.DefaultUserName || p.TotalTasks != 0 || !p.IsActive() {
		t.Fatalf("unexpected new profile: %+v", p)
	}
}

func TestRegisteredUserWithoutSessionSkipsRegistration(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	ctx := context.Background()

	p := domain.NewProfile("u1", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	p.UserName = "Alice"
	if err := h.users.Save(ctx, p); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	if got := h.send(t, "u1", "9"); got != replies.Help {
		t.Fatalf("reply = %q, want help", got)
	}
	if got := h.state(t, "u1"); got != domain.StateMain {
		t.Fatalf("state = %s, want main", got)
	}
	h.send(t, "u1", "2")

	stored, err := h.users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.UserName != "Alice" {
		t.Fatalf("name = %q, want Alice", stored.UserName)
	}
}

func TestUnreadableSessionReadsAsMain(t *testing.T) {
	store := testutil.NewBoltStore(t)
	h := newHarness(t, store)
	h.register(t, "u1", "Asha")

	ctx := context.Background()
	corrupt := json.RawMessage(`{"currentMenu":"main","waitingForInput":"no"}`)
	if err := store.Set(ctx, repository.CollectionSessions, "u1", corrupt, false); err != nil {
		t.Fatalf("write session: %v", err)
	}

	tests := []struct {
		text string
		want string
	}{
		{"9", replies.Help},
		{"back", replies.Nudge + "\n\n" + replies.Menu},
		{"hi", replies.Greeting("Asha")},
	}
	for _, tt := range tests {
		if got := h.send(t, "u1", tt.text); got != tt.want {
			t.Errorf("%q = %q, want %q", tt.text, got, tt.want)
		}
	}
	if got := h.state(t, "u1"); got != domain.StateMain {
		t.Fatalf("state = %s, want main", got)
	}
}

func TestConversationFlow(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	ctx := context.Background()

	h.send(t, "u1", "hello")
	if got := h.send(t, "u1", "  Asha "); got != replies.NameUpdated("Asha") {
		t.Fatalf("name reply = %q", got)
	}
	if got := h.state(t, "u1"); got != domain.StateMain {
		t.Fatalf("state after naming = %s", got)
	}

	if got := h.send(t, "u1", "1"); got != replies.AddTaskPrompt {
		t.Fatalf("option 1 reply = %q", got)
	}
	if got := h.state(t, "u1"); got != domain.StateAddTask {
		t.Fatalf("state after option 1 = %s", got)
	}
	if got := h.send(t, "u1", "Write report"); !strings.HasPrefix(got, replies.TaskAdded) {
		t.Fatalf("add task reply = %q", got)
	}

	tasks, err := h.tasks.ListTasks(ctx, "u1", "")
	if err != nil || len(tasks) != 1 {
		t.Fatalf("ListTasks = %v, %v; want one task", tasks, err)
	}
	if tasks[0].UserName != "Asha" || tasks[0].Status != domain.TaskPending {
		t.Fatalf("unexpected task: %+v", tasks[0])
	}

	h.send(t, "u1", "3")
	if got := h.send(t, "u1", tasks[0].ID); got != replies.TaskCompleted {
		t.Fatalf("complete reply = %q", got)
	}
	p, err := h.users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.TotalTasks != 1 || p.CompletedTasks != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", p.CompletedTasks, p.TotalTasks)
	}

	if got := h.send(t, "u1", "5"); !strings.Contains(got, "Completion Rate: 100%") {
		t.Fatalf("progress reply = %q", got)
	}
	if got := h.send(t, "u1", "2"); !strings.Contains(got, tasks[0].ID) {
		t.Fatalf("task list does not show the task id: %q", got)
	}
	if got := h.state(t, "u1"); got != domain.StateMain {
		t.Fatalf("final state = %s", got)
	}
}

func TestEscapeFromAwaitingStates(t *testing.T) {
	states := []domain.State{domain.StateNameInput, domain.StateAddTask, domain.StateCompleteTask, domain.StateEditTask}
	for _, state := range states {
		for _, escape := range []string{"back", " BACK ", "0"} {
			t.Run(fmt.Sprintf("%s/%q", state, escape), func(t *testing.T) {
				h := newHarness(t, testutil.NewBoltStore(t))
				h.register(t, "u1", "Asha")
				h.setState(t, "u1", state)

				if got := h.send(t, "u1", escape); got != replies.Menu {
					t.Fatalf("escape reply = %q, want menu", got)
				}
				if got := h.state(t, "u1"); got != domain.StateMain {
					t.Fatalf("state = %s, want main", got)
				}
				tasks, _ := h.tasks.ListTasks(context.Background(), "u1", "")
				if len(tasks) != 0 {
					t.Fatalf("escape created %d tasks", len(tasks))
				}
			})
		}
	}
}

func TestEditTaskErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid format stays in edit", func(t *testing.T) {
		h := newHarness(t, testutil.NewBoltStore(t))
		h.register(t, "u1", "Asha")
		h.send(t, "u1", "4")

		if got := h.send(t, "u1", "onlyanid"); got != replies.EditFormat {
			t.Fatalf("reply = %q, want edit format help", got)
		}
		if got := h.state(t, "u1"); got != domain.StateEditTask {
			t.Fatalf("state = %s, want edit_task", got)
		}
	})

	t.Run("completed task is immutable", func(t *testing.T) {
		h := newHarness(t, testutil.NewBoltStore(t))
		h.register(t, "u1", "Asha")
		created, err := h.tasks.CreateTask(ctx, "u1", "original")
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if _, err := h.tasks.CompleteTask(ctx, "u1", created.ID); err != nil {
			t.Fatalf("CompleteTask: %v", err)
		}

		h.send(t, "u1", "4")
		got := h.send(t, "u1", created.ID+" rewritten")
		if got != replies.Error("Cannot edit completed task") {
			t.Fatalf("reply = %q", got)
		}
		if state := h.state(t, "u1"); state != domain.StateMain {
			t.Fatalf("state = %s, want main", state)
		}
		tasks, _ := h.tasks.ListTasks(ctx, "u1", "")
		if tasks[0].Description != "original" {
			t.Fatalf("description changed to %q", tasks[0].Description)
		}
	})

	t.Run("foreign task reads as not found", func(t *testing.T) {
		h := newHarness(t, testutil.NewBoltStore(t))
		h.register(t, "u1", "Asha")
		h.register(t, "u2", "Ravi")
		foreign, err := h.tasks.CreateTask(ctx, "u2", "not yours")
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}

		h.send(t, "u1", "3")
		if got := h.send(t, "u1", foreign.ID); got != replies.Error("Task not found") {
			t.Fatalf("reply = %q", got)
		}
		if state := h.state(t, "u1"); state != domain.StateMain {
			t.Fatalf("state = %s, want main", state)
		}
	})
}

func TestCompleteTwiceReportsAlreadyCompleted(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	h.register(t, "u1", "Asha")
	created, err := h.tasks.CreateTask(context.Background(), "u1", "once")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if got := h.send(t, "u1", "/complete "+created.ID); got != replies.TaskCompleted {
		t.Fatalf("first complete = %q", got)
	}
	if got := h.send(t, "u1", "!complete "+created.ID); got != replies.Error("Task already completed") {
		t.Fatalf("second complete = %q", got)
	}
	p, _ := h.users.GetByID(context.Background(), "u1")
	if p.CompletedTasks != 1 {
		t.Fatalf("completedTasks = %d, want 1", p.CompletedTasks)
	}
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	h.register(t, "u1", "Asha")
	h.register(t, admin, "Boss")

	tests := []struct {
		from string
		text string
		want string
	}{
		{"u1", "/teamstats", replies.PermissionDenied},
		{"u1", "/teammembers", replies.PermissionDenied},
		{"u1", "/broadcast hello", replies.PermissionDenied},
		{"u1", "/reset " + admin, replies.PermissionDenied},
		{"u1", "/strike " + admin, replies.PermissionDenied},
		{"u1", "/strike", replies.NoStrikes},
		{admin, "/strike u1", replies.StrikeAdded("u1", 1)},
		{"u1", "/strike", replies.Strikes(1)},
		{"u1", "/nosuchthing", replies.UnknownCommand},
	}
	for _, tt := range tests {
		if got := h.send(t, tt.from, tt.text); got != tt.want {
			t.Errorf("%s %q = %q, want %q", tt.from, tt.text, got, tt.want)
		}
	}

	if got := h.send(t, admin, "/teamstats"); !strings.Contains(got, "Total Users: 2") {
		t.Errorf("teamstats = %q", got)
	}
}

func TestAdminResetsSession(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	h.register(t, "u1", "Asha")
	h.register(t, admin, "Boss")
	h.send(t, "u1", "1")

	h.send(t, admin, "/reset u1")
	if got := h.state(t, "u1"); got != domain.StateMain {
		t.Fatalf("u1 state = %s, want main", got)
	}
	// Admin resetting their own session must not deadlock.
	h.send(t, admin, "/reset "+admin)
}

func TestBroadcastCommand(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	h.register(t, "u1", "Asha")
	h.register(t, admin, "Boss")

	if got := h.send(t, admin, "/broadcast standup at 10"); got != "📢 Broadcast sent to 2 users" {
		t.Fatalf("reply = %q", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.engine.deps.Broadcasts.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := h.sender.To("u1"); len(got) != 1 || got[0] != "standup at 10" {
		t.Fatalf("u1 received %q", got)
	}
}

func TestMainStateText(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	h.register(t, "u1", "Asha")

	tests := []struct {
		text string
		want string
	}{
		{"Hey there!", replies.Greeting("Asha")},
		{"this is nothing", replies.Nudge + "\n\n" + replies.Menu},
		{"Aaj kya kaam kiye?", replies.CheckInHint},
		{"42", replies.Nudge + "\n\n" + replies.Menu},
		{"9", replies.Help},
		{"0", replies.Goodbye},
		{"/ping", replies.Ping},
	}
	for _, tt := range tests {
		if got := h.send(t, "u1", tt.text); got != tt.want {
			t.Errorf("%q = %q, want %q", tt.text, got, tt.want)
		}
	}
	if got := h.state(t, "u1"); got != domain.StateMain {
		t.Fatalf("state = %s, want main", got)
	}
}

// failingStore rejects writes to the listed collections.
type failingStore struct {
	repository.DocumentStore
	failWrites map[string]bool
}

func (s *failingStore) Set(ctx context.Context, collection, id string, doc json.RawMessage, merge bool) error {
	if s.failWrites[collection] {
		return errors.New("connection refused")
	}
	return s.DocumentStore.Set(ctx, collection, id, doc, merge)
}

func TestStoreOutageKeepsSession(t *testing.T) {
	store := &failingStore{DocumentStore: testutil.NewBoltStore(t), failWrites: map[string]bool{}}
	h := newHarness(t, store)
	h.register(t, "u1", "Asha")
	h.send(t, "u1", "1")

	store.failWrites[repository.CollectionTasks] = true
	if got := h.send(t, "u1", "Write report"); got != replies.StoreDown {
		t.Fatalf("reply = %q, want store error", got)
	}
	if got := h.state(t, "u1"); got != domain.StateAddTask {
		t.Fatalf("state = %s, want add_task", got)
	}

	store.failWrites[repository.CollectionTasks] = false
	if got := h.send(t, "u1", "Write report"); !strings.HasPrefix(got, replies.TaskAdded) {
		t.Fatalf("retry reply = %q", got)
	}
}

func TestConcurrentMessagesFromOneHandle(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))
	h.register(t, "u1", "Asha")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = h.engine.Handle(context.Background(), domain.Message{Sender: "u1", Text: fmt.Sprintf("/task item %d", i)})
		}(i)
	}
	wg.Wait()

	p, err := h.users.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.TotalTasks != n {
		t.Fatalf("totalTasks = %d, want %d", p.TotalTasks, n)
	}
}

func TestHandleRejectsUnprocessable(t *testing.T) {
	h := newHarness(t, testutil.NewBoltStore(t))

	msgs := []domain.Message{
		{Sender: "u1", Text: "hi", FromSelf: true},
		{Sender: "group@g.us", Text: "hi", Group: true},
		{Sender: "u1", Text: "   "},
		{Text: "hi"},
	}
	for _, msg := range msgs {
		if _, err := h.engine.Handle(context.Background(), msg); !errors.Is(err, ErrNotProcessable) {
			t.Errorf("Handle(%+v) err = %v, want ErrNotProcessable", msg, err)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		state domain.State
		text  string
		want  inputClass
	}{
		{domain.StateAddTask, "Back", classEscape},
		{domain.StateAddTask, "1", classPayload},
		{domain.StateEditTask, "/help", classPayload},
		{domain.StateMain, "7", classSelection},
		{domain.StateMain, "12", classText},
		{domain.StateMain, "/stats", classCommand},
		{domain.StateMain, "!stats", classCommand},
		{domain.StateMain, "/", classText},
		{domain.StateMain, "hi!", classGreeting},
		{domain.StateMain, "think", classText},
		{domain.StateMain, "time for a task check", classCheckIn},
	}
	for _, tt := range tests {
		if got := classify(tt.state, tt.text); got != tt.want {
			t.Errorf("classify(%s, %q) = %s, want %s", tt.state, tt.text, got, tt.want)
		}
	}
}
