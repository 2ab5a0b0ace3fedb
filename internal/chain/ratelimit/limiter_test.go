package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5, "crust")

	require.NotNil(t, l)
	require.NotNil(t, l.limiter)
	assert.Equal(t, "crust", l.chain)
	assert.InDelta(t, 10.0, float64(l.limiter.Limit()), 0.001)
	assert.Equal(t, 5, l.limiter.Burst())
}

func TestNewLimiter_DisabledIsNil(t *testing.T) {
	l := NewLimiter(0, 5, "crust")
	assert.Nil(t, l)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestNewLimiter_BurstFloor(t *testing.T) {
	l := NewLimiter(5, 0, "kilt")
	assert.Equal(t, 1, l.limiter.Burst())
}

func TestLimiter_AllowWithinBurst(t *testing.T) {
	const burst = 5
	l := NewLimiter(100, burst, "crust")

	for i := 0; i < burst; i++ {
		start := time.Now()
		require.NoError(t, l.Wait(context.Background()), "request %d should not error", i)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	}
}

func TestLimiter_WaitWhenExhausted(t *testing.T) {
	l := NewLimiter(10, 1, "moonbeam")

	require.NoError(t, l.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := NewLimiter(1, 1, "crust")
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, l.Wait(ctx))
}

func TestLimiter_Call(t *testing.T) {
	l := NewLimiter(100, 2, "phala")

	calls := 0
	err := l.Call(context.Background(), "phala", "transfers", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = l.Call(context.Background(), "phala", "transfers", func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestClassifyRPCError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("fetch: %w", context.Canceled), "canceled"},
		{errors.New("http status 429: slow down"), "rate_limited"},
		{errors.New("http status 502: bad gateway"), "server_error"},
		{errors.New("dial tcp: connection refused"), "network_error"},
		{errors.New("graphql: field not found"), "query_error"},
		{errors.New("invalid params"), "client_error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRPCError(tc.err), "%v", tc.err)
	}
}
