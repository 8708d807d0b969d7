package main

import (
	"os"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akmistry/fixmem/procmem"
)

func TestNewAccessor(t *testing.T) {
	cases := []struct {
		name    string
		target  target
		want    string
		wantErr bool
	}{
		{
			name:   "redis",
			target: target{mode: "redis", server: "127.0.0.1:6380", offset: 8},
			want:   "127.0.0.1:6380+8",
		},
		{
			name:   "http",
			target: target{mode: "http", server: "127.0.0.1:8080", timeout: time.Second},
			want:   "127.0.0.1:8080+0",
		},
		{
			name:    "unknown mode",
			target:  target{mode: "tcp"},
			wantErr: true,
		},
		{
			name:    "bad address",
			target:  target{mode: "proc", address: "nowhere", pid: os.Getpid()},
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, closeFn, err := newAccessor(c.target)
			if c.wantErr {
				require.Error(t, err)
				require.Nil(t, a)
				return
			}
			require.NoError(t, err)
			defer closeFn()
			require.Equal(t, c.want, a.String())
		})
	}
}

func TestNewAccessorProc(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process lookup by comm is linux only")
	}
	comm, err := os.ReadFile("/proc/self/comm")
	require.NoError(t, err)

	byPid := target{mode: "proc", pid: os.Getpid(), address: "0x7ff49e872000"}
	a, closeFn, err := newAccessor(byPid)
	require.NoError(t, err)
	defer closeFn()
	require.Equal(t, "7FF49E872000", a.String())
	require.Equal(t, os.Getpid(), a.(*procAccessor).p.Pid())

	byName := target{mode: "proc", name: string(comm[:len(comm)-1]), address: "4096"}
	a, closeFn, err = newAccessor(byName)
	require.NoError(t, err)
	defer closeFn()
	require.Equal(t, uintptr(4096), a.(*procAccessor).addr)

	missing := target{mode: "proc", pid: 1 << 30, address: "0x1000"}
	_, _, err = newAccessor(missing)
	require.ErrorIs(t, err, procmem.ErrNotFound)

	_, _, err = newAccessor(target{mode: "proc", name: "no-such-process-" + strconv.Itoa(os.Getpid()), address: "0x1000"})
	require.ErrorIs(t, err, procmem.ErrNotFound)
}
