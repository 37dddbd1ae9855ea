package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/LinkFox/internal/pkg/config"
)

func testClient(t *testing.T) *LinkCache {
	t.Helper()
	host := os.Getenv("CACHE_HOST")
	if host == "" {
		host = "localhost"
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("CACHE_PORT")); err == nil {
		port = p
	}
	client, err := NewClient(context.Background(), config.Cache{Host: host, Port: port})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewLinkCache(client, time.Minute)
}

func TestLinkCacheRoundTrip(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	code := "t" + uuid.NewString()[:8]

	_, ok := c.Get(ctx, code)
	assert.False(t, ok)

	c.Set(ctx, code, "https://example.com/a")
	got, ok := c.Get(ctx, code)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a", got)
}

func TestLinkCacheUnreachableIsMiss(t *testing.T) {
	_, err := NewClient(context.Background(), config.Cache{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
