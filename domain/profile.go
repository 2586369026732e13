package domain

import (
	"math"
	"time"
)

// DefaultUserName is used until a user answers the registration prompt.
const DefaultUserName = "Unknown User"

// Profile is the per-handle record kept in the users collection.
type Profile struct {
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	TotalTasks     int       `json:"totalTasks"`
	CompletedTasks int       `json:"completedTasks"`
	Strikes        int       `json:"strikes"`
	LastActive     time.Time `json:"lastActive"`
	RegisteredAt   time.Time `json:"registeredAt"`
	Active         *bool     `json:"isActive,omitempty"`
}

// NewProfile returns a freshly registered, active profile.
func NewProfile(handle string, now time.Time) *Profile {
	active := true
	return &Profile{
		UserID:       handle,
		UserName:     DefaultUserName,
		LastActive:   now,
		RegisteredAt: now,
		Active:       &active,
	}
}

// IsActive treats a missing flag as active.
func (p *Profile) IsActive() bool {
	return p != nil && (p.Active == nil || *p.Active)
}

func (p *Profile) SetActive(active bool) {
	p.Active = &active
}

func (p *Profile) Touch(now time.Time) {
	p.LastActive = now
}

// RecordTask counts a newly created task.
func (p *Profile) RecordTask(now time.Time) {
	p.TotalTasks++
	p.LastActive = now
}

// RecordCompletion counts a completed task, keeping completed <= total.
func (p *Profile) RecordCompletion() {
	p.CompletedTasks++
	if p.CompletedTasks > p.TotalTasks {
		p.TotalTasks = p.CompletedTasks
	}
}

// CompletionRate returns round(completed/total*100), 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
