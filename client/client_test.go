package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/akmistry/fixmem"
	"github.com/akmistry/fixmem/server"
)

const testAddr = uintptr(0x7ff4a8000000)

func reserveTest(t *testing.T, size int) *fixmem.Handle {
	t.Helper()
	h, err := fixmem.Reserve(testAddr, size)
	require.NoError(t, err)
	t.Cleanup(func() { h.Release() })
	return h
}

func startHTTP(t *testing.T, h *fixmem.Handle) string {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	srv := server.NewHTTPServer(l.Addr().String(), server.NewHandler(h, 4))
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })
	return l.Addr().String()
}

func startRedis(t *testing.T, h *fixmem.Handle) string {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	rs := server.NewRedisServer(h)
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				rs.Serve(c)
			}()
		}
	}()
	t.Cleanup(func() { l.Close() })
	return l.Addr().String()
}

func TestClient(t *testing.T) {
	h := reserveTest(t, 16)
	c := NewClient(startHTTP(t, h), 5*time.Second)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	require.NoError(t, h.SetUint64(0, 42))
	v, err := c.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	require.NoError(t, c.Put(ctx, 8, 180))
	v, err = h.Uint64(8)
	require.NoError(t, err)
	require.Equal(t, uint64(180), v)

	has, err := c.Has(ctx, 8)
	require.NoError(t, err)
	require.True(t, has)
	has, err = c.Has(ctx, 16)
	require.NoError(t, err)
	require.False(t, has)

	_, err = c.Get(ctx, 16)
	require.Error(t, err)
	require.Error(t, c.Put(ctx, 16, 1))
}

func TestRedisClient(t *testing.T) {
	h := reserveTest(t, 16)
	c := NewRedisClient(startRedis(t, h))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	addr, err := c.Addr(ctx)
	require.NoError(t, err)
	require.Equal(t, h.Addr(), addr)

	require.NoError(t, c.Set(ctx, 0, 42))
	v, err := h.Uint64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	require.NoError(t, h.SetUint64(8, 7))
	v, err = c.Get(ctx, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	_, err = c.Get(ctx, 16)
	require.ErrorIs(t, err, redis.Nil)
	require.Error(t, c.Set(ctx, 16, 1))
}
