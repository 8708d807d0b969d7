package fixmem

import (
	"unsafe"
)

// Cell is one value of type T stored in reserved memory. T must be a
// fixed-size type holding no Go pointers: the garbage collector never scans
// the region.
type Cell[T any] struct {
	h *Handle
	p *T
}

// NewCell reserves exactly unsafe.Sizeof(T) bytes for a T at addr.
func NewCell[T any](r Reserver, addr uintptr) (*Cell[T], error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	h, err := r.Reserve(addr, size)
	if err != nil {
		return nil, err
	}
	if h.Addr()%unsafe.Alignof(zero) != 0 {
		h.Release()
		reservations.WithLabelValues(resultFailed).Inc()
		return nil, &AllocationError{Addr: addr, Size: size, Err: errMisaligned}
	}
	return &Cell[T]{
		h: h,
		p: (*T)(unsafe.Pointer(h.Addr())),
	}, nil
}

func (c *Cell[T]) Addr() uintptr {
	return c.h.Addr()
}

func (c *Cell[T]) Handle() *Handle {
	return c.h
}

func (c *Cell[T]) Load() (T, error) {
	c.h.lock.RLock()
	defer c.h.lock.RUnlock()
	if c.h.mem == nil {
		var zero T
		return zero, ErrReleased
	}
	return *c.p, nil
}

func (c *Cell[T]) Store(v T) error {
	c.h.lock.Lock()
	defer c.h.lock.Unlock()
	if c.h.mem == nil {
		return ErrReleased
	}
	*c.p = v
	return nil
}
