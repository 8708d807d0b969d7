// Package procmem reads and writes the memory of another process.
package procmem

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrNotFound      = errors.New("process not found")
	ErrShortTransfer = errors.New("short transfer")
)

func shortTransfer(op string, addr uintptr, n, want int) error {
	return fmt.Errorf("procmem: %s at %#x: %d of %d bytes: %w", op, addr, n, want, ErrShortTransfer)
}

func bytesOf[T any](v *T, n int) []byte {
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), uintptr(n)*unsafe.Sizeof(zero))
}

// Read copies a T out of the target at addr, in the target's layout. T must
// be fixed size and hold no Go pointers.
func Read[T any](p *Proc, addr uintptr) (T, error) {
	var v T
	if err := p.ReadAt(bytesOf(&v, 1), addr); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ReadSlice reads n consecutive values of T starting at addr.
func ReadSlice[T any](p *Proc, addr uintptr, n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("procmem: negative count %d", n)
	}
	vals := make([]T, n)
	if n == 0 {
		return vals, nil
	}
	if err := p.ReadAt(bytesOf(&vals[0], n), addr); err != nil {
		return nil, err
	}
	return vals, nil
}

func Write[T any](p *Proc, addr uintptr, v T) error {
	return p.WriteAt(bytesOf(&v, 1), addr)
}

// ReadValid returns the value at addr only if valid accepts it.
func ReadValid[T any](p *Proc, addr uintptr, valid func(T) bool) (T, bool, error) {
	var zero T
	v, err := Read[T](p, addr)
	if err != nil {
		return zero, false, err
	}
	if !valid(v) {
		return zero, false, nil
	}
	return v, true, nil
}

// ReadUint64 reads a native-endian word at addr.
func (p *Proc) ReadUint64(addr uintptr) (uint64, error) {
	return Read[uint64](p, addr)
}

// WriteUint64 writes a native-endian word at addr.
func (p *Proc) WriteUint64(addr uintptr, v uint64) error {
	return Write(p, addr, v)
}
