package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resellkit/ops-api/internal/testutil"
)

func TestRedisStoreIncrement(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	}()

	store, err := NewRedisStore(RedisStoreOptions{Client: client, Prefix: "rltest"})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("counts within a window", func(t *testing.T) {
		for want := 1; want <= 3; want++ {
			count, reset, incErr := store.Increment(ctx, "client-a", time.Minute)
			require.NoError(t, incErr)
			assert.Equal(t, want, count)
			assert.WithinDuration(t, time.Now().Add(time.Minute), reset, 5*time.Second)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		count, _, incErr := store.Increment(ctx, "client-b", time.Minute)
		require.NoError(t, incErr)
		assert.Equal(t, 1, count)
	})

	t.Run("window elapse resets the count", func(t *testing.T) {
		_, _, incErr := store.Increment(ctx, "client-c", 50*time.Millisecond)
		require.NoError(t, incErr)

		time.Sleep(80 * time.Millisecond)

		count, _, incErr := store.Increment(ctx, "client-c", 50*time.Millisecond)
		require.NoError(t, incErr)
		assert.Equal(t, 1, count)
	})

	t.Run("requires a client", func(t *testing.T) {
		_, newErr := NewRedisStore(RedisStoreOptions{})
		assert.Error(t, newErr)
	})
}
