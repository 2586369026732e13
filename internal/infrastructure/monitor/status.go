package monitor

import "time"

type Status struct {
	Store        bool      `json:"store"`
	Redis        bool      `json:"redis"`
	RedisEnabled bool      `json:"redis_enabled"`
	Gateway      bool      `json:"gateway"`
	Buffer       bool      `json:"buffer"`
	BufferSize   int       `json:"buffer_size"`
	LastCheck    time.Time `json:"last_check"`
}

// Healthy reports whether the bot can serve conversations. The gateway and
// Redis are optional: replies buffer while the gateway is down.
func (s Status) Healthy() bool {
	return s.Store && (!s.RedisEnabled || s.Redis)
}
