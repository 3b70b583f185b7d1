package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestGuestCartRoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewGuestCartStore(client)
	ctx := context.Background()
	id := store.NewID()

	empty, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	cart := &models.Cart{}
	apples, pears := bson.NewObjectID(), bson.NewObjectID()
	require.NoError(t, cart.AddItem(apples, 2, 1.5))
	require.NoError(t, cart.AddItem(pears, 1, 4))
	require.NoError(t, store.Save(ctx, id, cart))

	assert.Equal(t, models.CartTTL, mr.TTL(guestCartKey(id)))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, apples, loaded.Items[0].Product)
	assert.Equal(t, 7.0, loaded.TotalAmount)
	assert.Equal(t, 3, loaded.TotalItems)

	require.NoError(t, store.Clear(ctx, id))
	assert.False(t, mr.Exists(guestCartKey(id)))
}

func TestGuestCartExpires(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewGuestCartStore(client)
	ctx := context.Background()
	id := store.NewID()

	cart := &models.Cart{}
	require.NoError(t, cart.AddItem(bson.NewObjectID(), 1, 1))
	require.NoError(t, store.Save(ctx, id, cart))

	mr.FastForward(models.CartTTL + time.Second)

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestGuestCartRejectsForeignIDs(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewGuestCartStore(client)

	_, err := store.Load(context.Background(), "../../etc")
	assert.ErrorIs(t, err, ErrInvalidGuestCartID)
	assert.ErrorIs(t, store.Clear(context.Background(), "*"), ErrInvalidGuestCartID)
}

func TestRateLimiterWindow(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Equal(t, time.Minute, d.ResetIn)

	other, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	mr.FastForward(time.Minute)

	d, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiterReportsRedisFailure(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRateLimiter(client, 3, time.Minute)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}
