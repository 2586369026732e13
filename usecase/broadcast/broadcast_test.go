package broadcast

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/testutil"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/repository/document"
)

func setup(t *testing.T, sender *testutil.Sender) (*UseCase, repository.ProfileRepository, *testutil.Clock) {
	t.Helper()
	store := testutil.NewBoltStore(t)
	clock := testutil.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	users := document.NewProfileRepository(store, nil)
	uc := New(users, document.NewBroadcastRepository(store, nil), sender, clock.Usecase(), nil, Config{Concurrency: 2})
	return uc, users, clock
}

func addProfile(t *testing.T, users repository.ProfileRepository, handle string, active bool) {
	t.Helper()
	p := domain.NewProfile(handle, time.Now())
	p.SetActive(active)
	if err := users.Save(context.Background(), p); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func wait(t *testing.T, uc *UseCase) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := uc.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestStartDeliversToActiveUsers(t *testing.T) {
	sender := &testutil.Sender{Fail: map[string]bool{"c": true}}
	uc, users, _ := setup(t, sender)
	for _, h := range []string{"a", "b", "c"} {
		addProfile(t, users, h, true)
	}
	addProfile(t, users, "inactive", false)

	record, err := uc.Start(context.Background(), "  Standup moved to 11  ", Options{Urgent: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, uc)

	if record.ID == "" || record.Recipients != 3 || !record.Urgent {
		t.Fatalf("record = %+v", record)
	}
	want := "🚨 URGENT: Standup moved to 11"
	if record.Message != want {
		t.Fatalf("message = %q, want %q", record.Message, want)
	}
	// A failed recipient does not stop the others.
	msgs := sender.Messages()
	if len(msgs) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(msgs))
	}
	for _, m := range msgs {
		if m.Text != want || m.To == "inactive" {
			t.Fatalf("unexpected delivery %+v", m)
		}
	}
}

func TestStartValidatesMessage(t *testing.T) {
	uc, _, _ := setup(t, &testutil.Sender{})
	if _, err := uc.Start(context.Background(), " ", Options{}); err != domain.ErrInvalidFormat {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestMotivationIsAppended(t *testing.T) {
	sender := &testutil.Sender{}
	uc, users, _ := setup(t, sender)
	addProfile(t, users, "a", true)

	record, err := uc.Start(context.Background(), "Hello team", Options{IncludeMotivation: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, uc)
	if !strings.HasPrefix(record.Message, "Hello team\n\n") || len(record.Message) <= len("Hello team\n\n") {
		t.Fatalf("message = %q", record.Message)
	}
}

func TestListNewestFirst(t *testing.T) {
	uc, _, clock := setup(t, &testutil.Sender{})
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		if _, err := uc.Start(ctx, msg, Options{}); err != nil {
			t.Fatalf("Start: %v", err)
		}
		clock.Advance(time.Minute)
	}
	wait(t, uc)

	got, err := uc.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Message != "three" || got[1].Message != "two" {
		t.Fatalf("List = %+v", got)
	}
}
