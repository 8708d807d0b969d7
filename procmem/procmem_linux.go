package procmem

import (
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// Proc is a handle on another process's address space. Access is subject to
// the kernel's ptrace rules (same user, and kernel.yama.ptrace_scope).
type Proc struct {
	pid int
}

func Open(pid int) (*Proc, error) {
	if _, err := procfs.NewProc(pid); err != nil {
		return nil, ErrNotFound
	}
	return &Proc{pid: pid}, nil
}

// FindByName returns the first process whose command name is name. Linux
// truncates command names to 15 bytes, so name is compared the same way.
func FindByName(name string) (*Proc, error) {
	const commLen = 15
	if len(name) > commLen {
		name = name[:commLen]
	}

	procs, err := procfs.AllProcs()
	if err != nil {
		return nil, err
	}
	for _, p := range procs {
		comm, err := p.Comm()
		if err != nil {
			// Raced with exit.
			continue
		}
		if comm == name {
			return &Proc{pid: p.PID}, nil
		}
	}
	return nil, ErrNotFound
}

func (p *Proc) Pid() int {
	return p.pid
}

func (p *Proc) ReadAt(buf []byte, addr uintptr) error {
	if len(buf) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: addr, Len: len(buf)}}
	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return shortTransfer("read", addr, n, len(buf))
	}
	return nil
}

func (p *Proc) WriteAt(buf []byte, addr uintptr) error {
	if len(buf) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: addr, Len: len(buf)}}
	n, err := unix.ProcessVMWritev(p.pid, local, remote, 0)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return shortTransfer("write", addr, n, len(buf))
	}
	return nil
}

func (p *Proc) Close() error {
	return nil
}
