package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/studyrec/core"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, "test", ttl), mr
}

func TestRedisStoreReplaceAndFind(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t, 0)

	require.NoError(t, s.Insert(ctx, rec("old", 99)))
	require.NoError(t, s.Replace(ctx, testKey, []core.Recommendation{
		{ExternalID: "a", Title: "A", Description: "desc", ThumbnailURL: "http://img/a", Score: 40},
		{ExternalID: "b", Title: "B", Score: 90},
		{ExternalID: "a", Title: "dup", Score: 10},
	}))

	got, err := s.Find(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ExternalID)
	assert.Equal(t, "a", got[1].ExternalID)
	assert.Equal(t, "http://img/a", got[1].ThumbnailURL)
	assert.Equal(t, testKey.CourseID, got[1].CourseID)
	assert.False(t, got[1].CreatedAt.IsZero())
}

func TestRedisStoreFindMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t, 0)

	got, err := s.Find(ctx, testKey)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Insert(ctx, rec("a", 1)))
	require.NoError(t, s.Insert(ctx, rec("a", 1)))
	got, err = s.Find(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, core.HasDuplicateIDs(got), "Insert does not dedup")

	require.NoError(t, s.DeleteAll(ctx, testKey))
	assert.False(t, mr.Exists(s.recKey(testKey)))
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t, time.Minute)

	require.NoError(t, s.Replace(ctx, testKey, []core.Recommendation{{ExternalID: "a", Score: 1}}))
	assert.Equal(t, time.Minute, mr.TTL(s.recKey(testKey)))

	mr.FastForward(2 * time.Minute)
	got, err := s.Find(ctx, testKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t, 0)

	_, err := mr.RPush(s.recKey(testKey), "{not json")
	require.NoError(t, err)
	_, err = s.Find(ctx, testKey)
	assert.True(t, core.IsDataAnomaly(err))
}

func TestRedisStoreMembers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t, 0)

	_, err := s.Members(ctx, "blacklist")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)

	require.NoError(t, s.AddMembers(ctx, "blacklist", "v1", "v2"))
	members, err := s.Members(ctx, "blacklist")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "v2"}, members)
	assert.NoError(t, s.Ping(ctx))
}
