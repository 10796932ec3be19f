package shots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const cachePrefix = "poolsim:"

// RedisCache keeps msgpack-encoded results in Redis with a fixed TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Result, bool, error) {
	data, err := c.rdb.Get(ctx, cachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r, err := DecodeResult(data)
	if err != nil {
		// A stale encoding is as good as a miss.
		c.rdb.Del(ctx, cachePrefix+key)
		return nil, false, nil
	}
	return r, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, r *Result) error {
	data, err := EncodeResult(r)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cachePrefix+key, data, c.ttl).Err()
}

func EncodeResult(r *Result) ([]byte, error) {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

func DecodeResult(data []byte) (*Result, error) {
	var r Result
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &r, nil
}
