// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskbot/repository/bolt"
	"github.com/fastygo/taskbot/usecase"
)

// NewBoltStore opens a document store in a temporary directory and closes it
// when the test ends.
func NewBoltStore(t *testing.T) *bolt.DocumentStore {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Usecase returns the use case clock backed by c.
func (c *Clock) Usecase() usecase.Clock {
	return usecase.Clock{Location: c.now.Location(), Now: c.Now}
}

// Sent is one captured outbound message.
type Sent struct {
	To   string
	Text string
}

// ErrSendFailed is returned by Sender for handles listed in Fail.
var ErrSendFailed = errors.New("send failed")

// Sender records outbound messages instead of delivering them.
type Sender struct {
	mu   sync.Mutex
	sent []Sent
	Fail map[string]bool
}

func (s *Sender) Send(_ context.Context, handle, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail[handle] {
		return ErrSendFailed
	}
	s.sent = append(s.sent, Sent{To: handle, Text: text})
	return nil
}

func (s *Sender) Messages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.sent...)
}

// To returns the texts delivered to handle in order.
func (s *Sender) To(handle string) []string {
	var out []string
	for _, m := range s.Messages() {
		if m.To == handle {
			out = append(out, m.Text)
		}
	}
	return out
}
