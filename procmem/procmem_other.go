//go:build !linux && !windows

package procmem

import (
	"errors"
)

type Proc struct {
	pid int
}

func Open(pid int) (*Proc, error) {
	return nil, errors.ErrUnsupported
}

func FindByName(name string) (*Proc, error) {
	return nil, errors.ErrUnsupported
}

func (p *Proc) Pid() int {
	return p.pid
}

func (p *Proc) ReadAt(buf []byte, addr uintptr) error {
	return errors.ErrUnsupported
}

func (p *Proc) WriteAt(buf []byte, addr uintptr) error {
	return errors.ErrUnsupported
}

func (p *Proc) Close() error {
	return nil
}
