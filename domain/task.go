package domain

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle position of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// DateLayout is the calendar-date format used for daily grouping.
const DateLayout = "2006-01-02"

// Task represents a user-owned activity item.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	Date        string     `json:"date"`
	CompletedAt *time.Time `json:"completedAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskCompleted
}

// OwnedBy reports whether handle owns the task.
func (t *Task) OwnedBy(handle string) bool {
	return t != nil && handle != "" && t.UserID == handle
}

// Complete marks the task completed. It returns false when it already was.
func (t *Task) Complete(at time.Time) bool {
	if t.IsCompleted() {
		return false
	}
	t.Status = TaskCompleted
	completed := at
	t.CompletedAt = &completed
	return true
}

// Rewrite replaces the description of a pending task.
func (t *Task) Rewrite(description string, at time.Time) bool {
	if t.IsCompleted() {
		return false
	}
	t.Description = strings.TrimSpace(description)
	updated := at
	t.UpdatedAt = &updated
	return true
}
