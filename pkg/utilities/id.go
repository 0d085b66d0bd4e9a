package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewRequestID generates a KSUID string used to correlate log lines for a
// single HTTP request.
func NewRequestID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewOrderReference generates a snowflake reference string stamped on each
// persisted order. The node ID comes from SNOWFLAKE_NODE; if the node cannot
// be initialized it falls back to a KSUID so a unique reference is still
// returned.
func NewOrderReference() string {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = parsed
			}
		}
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			return
		}
		node = n
	})
	if node == nil {
		return ksuid.New().String()
	}
	return node.Generate().String()
}
