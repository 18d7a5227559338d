package cache_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shiprate/internal/cache"
)

type entry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	c := cache.New(client, "shiprate:", time.Minute)
	ctx := context.Background()

	var got entry
	found, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, c.SetJSON(ctx, "k", entry{Name: "bkk", Price: 42}))
	require.True(t, mr.Exists("shiprate:k"))

	found, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entry{Name: "bkk", Price: 42}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *cache.Cache
	ctx := context.Background()
	found, err := c.GetJSON(ctx, "k", &entry{})
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, c.SetJSON(ctx, "k", entry{}))

	detached := cache.New(nil, "p:", time.Minute)
	found, err = detached.GetJSON(ctx, "k", &entry{})
	require.NoError(t, err)
	require.False(t, found)
}

func TestKeySlabTableIsStable(t *testing.T) {
	a := cache.KeySlabTable("https://api.example.com/rate-slabs")
	require.Equal(t, a, cache.KeySlabTable("https://api.example.com/rate-slabs"))
	require.NotEqual(t, a, cache.KeySlabTable("https://api.example.com/other"))
	require.Len(t, a, len("slabs:")+16)
}
