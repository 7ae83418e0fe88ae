package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mercato-next/internal/config"

	"github.com/redis/go-redis/v9"
)

// store 进程级 Redis 句柄。未启用时所有缓存操作退化为 no-op，
// 业务路径不因缓存缺席而失败。
var store struct {
	client *redis.Client
	prefix string
}

// InitRedis 初始化 Redis 客户端
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		store.client = nil
		return nil
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	store.prefix = strings.TrimSpace(cfg.Prefix)
	if store.prefix == "" {
		store.prefix = "mkt"
	}
	store.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return nil
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return store.client != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	return store.client
}

// GetJSON 读取 JSON 缓存，返回是否命中
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if store.client == nil {
		return false, nil
	}
	val, err := store.client.Get(ctx, prefixed(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if store.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.client.Set(ctx, prefixed(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	if store.client == nil {
		return nil
	}
	return store.client.Del(ctx, prefixed(key)).Err()
}

func prefixed(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return store.prefix
	}
	return store.prefix + ":" + key
}
