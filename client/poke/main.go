package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/akmistry/fixmem/client"
	"github.com/akmistry/fixmem/procmem"
	"github.com/akmistry/fixmem/server"
)

var (
	mode    = flag.String("mode", "redis", "How to reach the value: redis, http or proc")
	srvAddr = flag.String("server", "127.0.0.1:6380", "Address/port of the target's redis or http server")
	offset  = flag.Int("offset", 0, "Byte offset of the word within the target's region (redis, http)")
	pid     = flag.Int("pid", 0, "Target process id (proc)")
	name    = flag.String("name", "fixmem", "Target process name, used when --pid is 0 (proc)")
	address = flag.String("address", "0x00007FF49E872000", "Address of the word in the target process (proc)")
	set     = flag.String("set", "", "Value to write. Read only when empty")
	timeout = flag.Duration("timeout", 5*time.Second, "Per-request timeout (redis, http)")
)

// target says where the word lives.
type target struct {
	mode    string
	server  string
	offset  int
	pid     int
	name    string
	address string
	timeout time.Duration
}

// accessor reads and writes one word in a target.
type accessor interface {
	Get(ctx context.Context) (uint64, error)
	Set(ctx context.Context, v uint64) error
	String() string
}

type redisAccessor struct {
	c      *client.RedisClient
	server string
	off    int
}

func (a *redisAccessor) Get(ctx context.Context) (uint64, error) { return a.c.Get(ctx, a.off) }
func (a *redisAccessor) Set(ctx context.Context, v uint64) error { return a.c.Set(ctx, a.off, v) }
func (a *redisAccessor) String() string                          { return fmt.Sprintf("%s+%d", a.server, a.off) }

type httpAccessor struct {
	c      *client.Client
	server string
	off    int
}

func (a *httpAccessor) Get(ctx context.Context) (uint64, error) { return a.c.Get(ctx, a.off) }
func (a *httpAccessor) Set(ctx context.Context, v uint64) error { return a.c.Put(ctx, a.off, v) }
func (a *httpAccessor) String() string                          { return fmt.Sprintf("%s+%d", a.server, a.off) }

type procAccessor struct {
	p    *procmem.Proc
	addr uintptr
}

func (a *procAccessor) Get(ctx context.Context) (uint64, error) { return a.p.ReadUint64(a.addr) }
func (a *procAccessor) Set(ctx context.Context, v uint64) error { return a.p.WriteUint64(a.addr, v) }
func (a *procAccessor) String() string                          { return fmt.Sprintf("%X", a.addr) }

func newAccessor(t target) (accessor, func() error, error) {
	switch t.mode {
	case "redis":
		c := client.NewRedisClient(t.server)
		return &redisAccessor{c: c, server: t.server, off: t.offset}, c.Close, nil
	case "http":
		c := client.NewClient(t.server, t.timeout)
		return &httpAccessor{c: c, server: t.server, off: t.offset}, c.Close, nil
	case "proc":
		addr, err := strconv.ParseUint(t.address, 0, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid address %q: %w", t.address, err)
		}
		var p *procmem.Proc
		if t.pid != 0 {
			p, err = procmem.Open(t.pid)
		} else {
			p, err = procmem.FindByName(t.name)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("opening process: %w", err)
		}
		return &procAccessor{p: p, addr: uintptr(addr)}, p.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown mode %q", t.mode)
}

func main() {
	flag.Parse()

	a, closeFn, err := newAccessor(target{
		mode:    *mode,
		server:  *srvAddr,
		offset:  *offset,
		pid:     *pid,
		name:    *name,
		address: *address,
		timeout: *timeout,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	ctx := context.Background()
	v, err := a.Get(ctx)
	if err != nil {
		log.Fatalf("Failed to read value: %v", err)
	}
	fmt.Printf("Read %d from %s\n", v, a)

	if *set == "" {
		return
	}
	nv, err := server.ParseValue([]byte(*set))
	if err != nil {
		log.Fatalf("Invalid value %q: %v", *set, err)
	}
	if err := a.Set(ctx, nv); err != nil {
		fmt.Fprintf(os.Stderr, "Could not write: %v\n", err)
		os.Exit(1)
	}
	v, err = a.Get(ctx)
	if err != nil {
		log.Fatalf("Failed to read value: %v", err)
	}
	fmt.Printf("Read %d from %s\n", v, a)
}
