package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureConsumerCreatesWhenNotFound(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go func() {
		respondOnce(t, b, map[string]any{"error": map[string]any{"code": 404, "description": "consumer not found"}})
		respondOnce(t, b, map[string]any{
			"stream_name": "orders",
			"name":        "durable-1",
			"config":      map[string]any{"durable_name": "durable-1", "deliver_policy": "all", "ack_policy": "explicit"},
		})
	}()

	info, err := mgr.EnsureConsumer("orders", "durable-1", "orders.>")
	require.NoError(t, err)
	assert.Equal(t, "durable-1", info.Name)
}

func TestEnsureConsumerReturnsExistingInfoDirectly(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go respondOnce(t, b, map[string]any{
		"stream_name": "orders",
		"name":        "durable-1",
		"config":      map[string]any{"durable_name": "durable-1", "deliver_policy": "all", "ack_policy": "explicit"},
	})

	info, err := mgr.EnsureConsumer("orders", "durable-1", "orders.>")
	require.NoError(t, err)
	assert.Equal(t, "durable-1", info.Name)
}

func TestEnsureStreamPropagatesUnrelatedError(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go respondOnce(t, b, map[string]any{"error": map[string]any{"code": 500, "description": "internal error"}})

	_, err := mgr.EnsureStream("orders", "orders")
	assert.Error(t, err)
}
