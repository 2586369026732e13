package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/internal/testutil"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/repository/document"
)

func newUseCase(t *testing.T) (*UseCase, repository.ProfileRepository, *testutil.Clock) {
	t.Helper()
	store := testutil.NewBoltStore(t)
	clock := testutil.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	users := document.NewProfileRepository(store, nil)
	uc := New(document.NewTaskRepository(store, nil), users, keylock.New(), clock.Usecase(), nil)
	return uc, users, clock
}

func TestCreateTask(t *testing.T) {
	uc, users, _ := newUseCase(t)
	ctx := context.Background()

	if _, err := uc.CreateTask(ctx, "alice", "   "); err != domain.ErrInvalidFormat {
		t.Fatalf("empty description err = %v", err)
	}

	task, err := uc.CreateTask(ctx, "alice", " Ship release ")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" || task.Description != "Ship release" || task.Status != domain.TaskPending {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.Date != "2025-03-10" || task.UserName != domain.DefaultUserName {
		t.Fatalf("unexpected task date/name: %+v", task)
	}

	p, err := users.GetByID(ctx, "alice")
	if err != nil {
		t.Fatalf("profile was not created: %v", err)
	}
	if p.TotalTasks != 1 || p.CompletedTasks != 0 {
		t.Fatalf("counters = %d/%d", p.CompletedTasks, p.TotalTasks)
	}
}

func TestConcurrentCreateKeepsCounters(t *testing.T) {
	uc, users, _ := newUseCase(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := uc.CreateTask(ctx, "alice", fmt.Sprintf("task %d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CreateTask: %v", err)
	}

	p, _ := users.GetByID(ctx, "alice")
	if p.TotalTasks != n {
		t.Fatalf("totalTasks = %d, want %d", p.TotalTasks, n)
	}
	tasks, _ := uc.ListTasks(ctx, "alice", "")
	if len(tasks) != n {
		t.Fatalf("stored %d tasks, want %d", len(tasks), n)
	}
}

func TestCompleteTask(t *testing.T) {
	uc, users, clock := newUseCase(t)
	ctx := context.Background()

	task, _ := uc.CreateTask(ctx, "alice", "write docs")
	clock.Advance(time.Hour)

	if _, err := uc.CompleteTask(ctx, "bob", task.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("foreign complete err = %v, want ErrTaskNotFound", err)
	}
	if _, err := uc.CompleteTask(ctx, "alice", "nope"); err != domain.ErrTaskNotFound {
		t.Fatalf("unknown id err = %v, want ErrTaskNotFound", err)
	}

	done, err := uc.CompleteTask(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !done.IsCompleted() || done.CompletedAt == nil || !done.CompletedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected completed task: %+v", done)
	}

	if _, err := uc.CompleteTask(ctx, "alice", task.ID); err != domain.ErrTaskAlreadyCompleted {
		t.Fatalf("second complete err = %v", err)
	}
	p, _ := users.GetByID(ctx, "alice")
	if p.CompletedTasks != 1 || p.TotalTasks != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", p.CompletedTasks, p.TotalTasks)
	}
}

func TestEditTask(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	task, _ := uc.CreateTask(ctx, "alice", "draft")

	edited, err := uc.EditTask(ctx, "alice", task.ID, "final")
	if err != nil {
		t.Fatalf("EditTask: %v", err)
	}
	if edited.Description != "final" || edited.UpdatedAt == nil {
		t.Fatalf("unexpected edited task: %+v", edited)
	}
	if _, err := uc.EditTask(ctx, "bob", task.ID, "mine now"); err != domain.ErrTaskNotFound {
		t.Fatalf("foreign edit err = %v", err)
	}
	if _, err := uc.EditTask(ctx, "alice", task.ID, " "); err != domain.ErrInvalidFormat {
		t.Fatalf("blank edit err = %v", err)
	}

	if _, err := uc.CompleteTask(ctx, "alice", task.ID); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if _, err := uc.EditTask(ctx, "alice", task.ID, "too late"); err != domain.ErrTaskImmutable {
		t.Fatalf("edit completed err = %v", err)
	}
	tasks, _ := uc.ListTasks(ctx, "alice", domain.TaskCompleted)
	if len(tasks) != 1 || tasks[0].Description != "final" {
		t.Fatalf("completed task changed: %+v", tasks)
	}
}

func TestAddStrike(t *testing.T) {
	uc, users, _ := newUseCase(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := uc.AddStrike(ctx, "carol")
		if err != nil {
			t.Fatalf("AddStrike: %v", err)
		}
		if got != want {
			t.Fatalf("AddStrike = %d, want %d", got, want)
		}
	}
	p, _ := users.GetByID(ctx, "carol")
	if p.Strikes != 3 {
		t.Fatalf("strikes = %d", p.Strikes)
	}
}

func TestListTasksNewestFirst(t *testing.T) {
	uc, _, clock := newUseCase(t)
	ctx := context.Background()

	first, _ := uc.CreateTask(ctx, "alice", "first")
	clock.Advance(25 * time.Hour)
	second, _ := uc.CreateTask(ctx, "alice", "second")

	tasks, err := uc.ListTasks(ctx, "alice", "")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("order = %+v", tasks)
	}

	today, _ := uc.TasksForDate(ctx, "alice", "2025-03-11")
	if len(today) != 1 || today[0].ID != second.ID {
		t.Fatalf("TasksForDate = %+v", today)
	}
}
