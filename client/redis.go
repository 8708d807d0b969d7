package client

import (
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisClient peeks and pokes words of a remote region over RESP.
type RedisClient struct {
	rc *redis.Client
}

func NewRedisClient(addr string) *RedisClient {
	return &RedisClient{
		rc: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func (c *RedisClient) Close() error {
	return c.rc.Close()
}

func offsetKey(off int) string {
	return strconv.Itoa(off)
}

// Get returns redis.Nil if off is outside the remote region.
func (c *RedisClient) Get(ctx context.Context, off int) (uint64, error) {
	return c.rc.Get(ctx, offsetKey(off)).Uint64()
}

func (c *RedisClient) Set(ctx context.Context, off int, val uint64) error {
	return c.rc.Set(ctx, offsetKey(off), strconv.FormatUint(val, 10), 0).Err()
}

// Addr returns the base address of the remote region.
func (c *RedisClient) Addr(ctx context.Context) (uintptr, error) {
	v, err := c.rc.Do(ctx, "addr").Int64()
	if err != nil {
		return 0, err
	}
	return uintptr(v), nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rc.Ping(ctx).Err()
}
