package refdir

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisDirectory creates a test Redis directory with miniredis
func setupRedisDirectory(t *testing.T, opts ...RedisOption) (*RedisDirectory, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	dir := NewRedisDirectory(client, opts...)
	return dir, mr
}

func TestRedisDirectory_BindInvalidKey(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	assert.ErrorIs(t, dir.Bind(ctx, "", "media-1"), ErrInvalidKey)
	assert.ErrorIs(t, dir.Bind(ctx, "msg-1", ""), ErrInvalidKey)
}

func TestRedisDirectory_BindAndLookup(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "msg-1", "media-a"))
	require.NoError(t, dir.Bind(ctx, "msg-1", "media-b"))
	require.NoError(t, dir.Bind(ctx, "msg-2", "media-a"))

	subs, err := dir.Subsystems(ctx, "media-a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"msg-1", "msg-2"}, subs)

	ids, err := dir.MediaFor(ctx, "msg-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"media-a", "media-b"}, ids)

	inUse, err := dir.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestRedisDirectory_Unbind(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "msg-1", "media-a"))
	require.NoError(t, dir.Unbind(ctx, "msg-1", "media-a"))

	inUse, err := dir.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.False(t, inUse)

	ids, err := dir.MediaFor(ctx, "msg-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisDirectory_UnbindUnknownPair(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	assert.NoError(t, dir.Unbind(ctx, "msg-1", "media-a"))
}

func TestRedisDirectory_InUseUnknownID(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	inUse, err := dir.InUse(ctx, "nonexistent")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestRedisDirectory_Release(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "msg-1", "media-a"))
	require.NoError(t, dir.Bind(ctx, "msg-2", "media-a"))
	require.NoError(t, dir.Bind(ctx, "msg-1", "media-b"))

	freed, err := dir.Release(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"media-b"}, freed)

	inUse, err := dir.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.True(t, inUse, "media-a is still claimed by msg-2")

	inUse, err = dir.InUse(ctx, "media-b")
	require.NoError(t, err)
	assert.False(t, inUse)

	ids, err := dir.MediaFor(ctx, "msg-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisDirectory_ReleaseUnknownSubsystem(t *testing.T) {
	dir, _ := setupRedisDirectory(t)
	ctx := context.Background()

	freed, err := dir.Release(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, freed)
}

func TestRedisDirectory_KeyPrefix(t *testing.T) {
	dir, mr := setupRedisDirectory(t, WithPrefix("custom"))
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "msg-1", "media-a"))

	assert.True(t, mr.Exists("custom:subsystem:msg-1:media"))
	assert.True(t, mr.Exists("custom:media:media-a:subsystems"))
}

func TestRedisDirectory_TTLExpiresClaims(t *testing.T) {
	dir, mr := setupRedisDirectory(t, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "msg-1", "media-a"))

	inUse, err := dir.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.True(t, inUse)

	mr.FastForward(2 * time.Minute)

	inUse, err = dir.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestRedisDirectory_TTLRefreshedOnBind(t *testing.T) {
	dir, mr := setupRedisDirectory(t, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, dir.Bind(ctx, "msg-1", "media-a"))
	mr.FastForward(30 * time.Second)
	require.NoError(t, dir.Bind(ctx, "msg-2", "media-a"))
	mr.FastForward(45 * time.Second)

	// The second bind reset the clock, so the first claim is still alive.
	inUse, err := dir.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestRedisDirectory_SharedBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	dirA := NewRedisDirectory(clientA)
	dirB := NewRedisDirectory(clientB)

	require.NoError(t, dirA.Bind(ctx, "msg-1", "media-a"))

	inUse, err := dirB.InUse(ctx, "media-a")
	require.NoError(t, err)
	assert.True(t, inUse)
}
