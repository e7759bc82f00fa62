package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/rishiqwerty/event-management-backend/internal/config"
)

// setupTestRedis はテスト用のRedisクライアントを返す
// ローカルにRedisが起動していない場合はテストをスキップする
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host: "localhost",
		Port: "6379",
		DB:   15, // テスト専用DB
	}
	client := NewClient(cfg)
	if err := Ping(context.Background(), client); err != nil {
		t.Skipf("Redisが利用できないためスキップ: %v", err)
	}

	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
