package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resellkit/ops-api/internal/testutil"
)

func TestRedisCacheRepo(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	}()

	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "report:abc", []byte(`{"passed":true}`), time.Minute))

		got, err := repo.Get(ctx, "report:abc")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"passed":true}`), got)
	})

	t.Run("get missing key returns nil", func(t *testing.T) {
		got, err := repo.Get(ctx, "report:missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "report:del", []byte("x"), time.Minute))

		deleted, err := repo.Delete(ctx, "report:del")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "report:del")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, repo.Set(ctx, "", []byte("x"), 0))
		_, err := repo.Get(ctx, "")
		assert.Error(t, err)
		_, err = repo.Delete(ctx, "")
		assert.Error(t, err)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.Health(ctx))
	})
}
