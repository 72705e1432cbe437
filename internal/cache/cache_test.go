package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestVersionCounter(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	assert.Equal(t, int64(0), c.GetVersion(ctx, "user:1:docs:version"))
	c.IncrementVersion(ctx, "user:1:docs:version")
	c.IncrementVersion(ctx, "user:1:docs:version")
	assert.Equal(t, int64(2), c.GetVersion(ctx, "user:1:docs:version"))
}

func TestGetSet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type page struct {
		Titles []string `json:"titles"`
	}

	var got page
	found, err := c.Get(ctx, "docs:u:1:v:0:p:1:ps:10", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "docs:u:1:v:0:p:1:ps:10", page{Titles: []string{"Anatomy"}}, time.Minute))
	found, err = c.Get(ctx, "docs:u:1:v:0:p:1:ps:10", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Anatomy"}, got.Titles)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "docs:u:1:v:0:p:1:ps:10", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("broken", "{not json"))

	var dest map[string]any
	found, err := c.Get(context.Background(), "broken", &dest)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestNilClientIsAMiss(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	c.IncrementVersion(ctx, "k")
	assert.Equal(t, int64(0), c.GetVersion(ctx, "k"))
	assert.NoError(t, c.Set(ctx, "k", 1, time.Minute))

	var v int
	found, err := c.Get(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client := Connect(context.Background(), mr.Addr())
	require.NotNil(t, client)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, Connect(context.Background(), addr))
}
