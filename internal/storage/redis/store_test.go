package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goredis "github.com/redis/go-redis/v9"

	"github.com/spigell/cv-matcher/internal/storage/storagetest"
)

func TestKeyPrefix(t *testing.T) {
	s := NewWithClient(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}), "")
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, "cv-matcher:settings", s.Key("settings"))

	custom := NewWithClient(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}), "tenant-a:")
	t.Cleanup(func() { _ = custom.Close() })
	assert.Equal(t, "tenant-a:settings", custom.Key("settings"))
}

// Runs against a real server only when CV_MATCHER_TEST_REDIS_ADDR is set.
func TestStore(t *testing.T) {
	addr := os.Getenv("CV_MATCHER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CV_MATCHER_TEST_REDIS_ADDR is not set")
	}

	s, err := New(context.Background(), Config{Addr: addr, Prefix: "cv-matcher-test:" + t.Name() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storagetest.Run(t, s)
}
