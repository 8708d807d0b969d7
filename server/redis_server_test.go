package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akmistry/fixmem"
)

const testAddr = uintptr(0x7ff4a0000000)

func reserveTest(t *testing.T, size int) *fixmem.Handle {
	t.Helper()
	h, err := fixmem.Reserve(testAddr, size)
	require.NoError(t, err)
	t.Cleanup(func() { h.Release() })
	return h
}

func encodeCommand(args ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&sb, "$%d\r\n%s\r\n", len(a), a)
	}
	return sb.String()
}

type respTestConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
	done chan error
}

func newRespTestConn(t *testing.T, s *RedisServer) *respTestConn {
	client, server := net.Pipe()
	c := &respTestConn{
		t:    t,
		conn: client,
		r:    bufio.NewReader(client),
		done: make(chan error, 1),
	}
	go func() {
		c.done <- s.Serve(server)
		server.Close()
	}()
	t.Cleanup(func() { client.Close() })
	return c
}

// do sends a command and returns the first line of the reply, plus the
// payload line for bulk strings.
func (c *respTestConn) do(args ...string) string {
	c.t.Helper()
	_, err := c.conn.Write([]byte(encodeCommand(args...)))
	require.NoError(c.t, err)
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	if line[0] == '$' && line != "$-1\r\n" {
		payload, err := c.r.ReadString('\n')
		require.NoError(c.t, err)
		line += payload
	}
	return line
}

func TestRedisServerGetSet(t *testing.T) {
	h := reserveTest(t, 16)
	c := newRespTestConn(t, NewRedisServer(h))

	require.Equal(t, "$1\r\n0\r\n", c.do("GET", "0"))
	require.Equal(t, "+OK\r\n", c.do("SET", "0", "42"))
	require.Equal(t, "$2\r\n42\r\n", c.do("get", "0"))

	v, err := h.Uint64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	// Hex offsets and values.
	require.Equal(t, "+OK\r\n", c.do("SET", "0x8", "0xff"))
	require.Equal(t, "$3\r\n255\r\n", c.do("GET", "8"))

	// Out of bounds.
	require.Equal(t, "$-1\r\n", c.do("GET", "9"))
	require.True(t, strings.HasPrefix(c.do("SET", "16", "1"), "-ERR"))
	require.True(t, strings.HasPrefix(c.do("SET", "0", "-1"), "-ERR"))
	require.True(t, strings.HasPrefix(c.do("GET", "nope"), "-ERR"))
}

func TestRedisServerExternalWrite(t *testing.T) {
	h := reserveTest(t, 8)
	c := newRespTestConn(t, NewRedisServer(h))

	require.NoError(t, h.SetUint64(0, 42))
	require.Equal(t, "+OK\r\n", c.do("SET", "0", "180"))
	v, err := h.Uint64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(180), v)
}

func TestRedisServerDelExists(t *testing.T) {
	h := reserveTest(t, 16)
	c := newRespTestConn(t, NewRedisServer(h))

	require.NoError(t, h.SetUint64(0, 1))
	require.NoError(t, h.SetUint64(8, 2))

	require.Equal(t, ":2\r\n", c.do("EXISTS", "0", "8", "16"))
	require.Equal(t, ":1\r\n", c.do("DEL", "8", "100", "x"))
	v, err := h.Uint64(8)
	require.NoError(t, err)
	require.Zero(t, v)
	v, err = h.Uint64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)
}

func TestRedisServerInfo(t *testing.T) {
	h := reserveTest(t, 8)
	c := newRespTestConn(t, NewRedisServer(h))

	require.Equal(t, fmt.Sprintf(":%d\r\n", h.Addr()), c.do("ADDR"))
	require.Equal(t, ":8\r\n", c.do("SIZE"))
	require.Equal(t, "+PONG\r\n", c.do("PING"))
	require.Equal(t, "-ERR unknown command 'FLUSHALL'\r\n", c.do("FLUSHALL"))
	require.True(t, strings.HasPrefix(c.do("GET"), "-ERR wrong number"))
}

func TestRedisServerProtocolError(t *testing.T) {
	h := reserveTest(t, 8)
	c := newRespTestConn(t, NewRedisServer(h))

	_, err := c.conn.Write([]byte("+hello\r\n"))
	require.NoError(t, err)
	require.Error(t, <-c.done)
}

func TestRedisServerPipelined(t *testing.T) {
	h := reserveTest(t, 8)
	c := newRespTestConn(t, NewRedisServer(h))

	req := encodeCommand("SET", "0", "7") + encodeCommand("GET", "0")
	go c.conn.Write([]byte(req))

	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)
	line, err = c.r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "$1\r\n", line)
	line, err = c.r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "7\r\n", line)
}

func TestParseOffset(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "8": 8, "0x10": 16, "0X10": 16, "010": 10} {
		off, err := ParseOffset([]byte(in))
		require.NoError(t, err, in)
		require.Equal(t, want, off, in)
	}
	for _, in := range []string{"", "-8", "abc", "0x", "0o10", "0b1", "1_000", "4294967296"} {
		_, err := ParseOffset([]byte(in))
		require.Error(t, err, in)
	}
}

func TestParseValue(t *testing.T) {
	for in, want := range map[string]uint64{
		"0":                  0,
		"42":                 42,
		"010":                10,
		"0100":               100,
		"0xff":               255,
		"0xFFFFFFFFFFFFFFFF": 1<<64 - 1,
	} {
		v, err := ParseValue([]byte(in))
		require.NoError(t, err, in)
		require.Equal(t, want, v, in)
	}
	for _, in := range []string{"", "-1", "0x", "0o17", "1e3", "18446744073709551616"} {
		_, err := ParseValue([]byte(in))
		require.Error(t, err, in)
	}
}

func TestRedisServerLeadingZero(t *testing.T) {
	h := reserveTest(t, 16)
	c := newRespTestConn(t, NewRedisServer(h))

	require.Equal(t, "+OK\r\n", c.do("SET", "0", "010"))
	v, err := h.Uint64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(10), v)

	require.Equal(t, "+OK\r\n", c.do("SET", "08", "0100"))
	require.Equal(t, "$3\r\n100\r\n", c.do("GET", "8"))
}
