package ids

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// NewTaskID returns a KSUID: a timestamp prefix followed by 128 random bits.
func NewTaskID() string {
	return ksuid.New().String()
}

// SetNode configures the snowflake node used by NewBroadcastID.
func SetNode(id int64) error {
	n, err := snowflake.NewNode(id)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewBroadcastID generates a snowflake id, falling back to a KSUID when no
// node could be initialized.
func NewBroadcastID() string {
	nodeMu.Lock()
	defer nodeMu.Unlock()
	if node == nil {
		n, err := snowflake.NewNode(1)
		if err != nil {
			return ksuid.New().String()
		}
		node = n
	}
	return node.Generate().String()
}

// NewRequestID returns a random UUID string.
func NewRequestID() string {
	return uuid.NewString()
}
