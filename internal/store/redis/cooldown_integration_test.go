//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestCooldown_AcquireOncePerTTL(t *testing.T) {
	c, err := NewCooldown(setupRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	ok, err := c.Acquire(ctx, "low-balance:EVM:moonbeam:0xabc", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Acquire(ctx, "low-balance:EVM:moonbeam:0xabc", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Acquire(ctx, "low-balance:EVM:moonbeam:0xdef", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(1100 * time.Millisecond)
	ok, err = c.Acquire(ctx, "low-balance:EVM:moonbeam:0xabc", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
