package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/fluxo-portal/internal/domain"
)

// TestRedisStore_Integration requires a running Redis and skips otherwise.
func TestRedisStore_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	store := NewRedisStore(client)
	id := uuid.NewString()
	data := Data{
		Identity: &domain.Identity{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleAdmin},
		Flash:    &Flash{Kind: FlashSuccess, Message: "ok"},
	}

	require.NoError(t, store.Save(ctx, id, data, time.Minute))
	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, *loaded)

	ttl, err := client.TTL(ctx, redisKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
