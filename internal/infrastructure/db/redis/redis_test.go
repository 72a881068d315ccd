package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_RequiresAddress(t *testing.T) {
	client, err := Connect(context.Background(), Config{})
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestConnect_UnreachableServer(t *testing.T) {
	client, err := Connect(context.Background(), Config{
		Addr:     "127.0.0.1:1",
		Password: "secret",
		Timeout:  200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "redis ping 127.0.0.1:1")
}

func TestPing(t *testing.T) {
	client := testClient(t)
	require.NoError(t, Ping(context.Background(), client))
}
