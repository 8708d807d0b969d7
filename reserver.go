package fixmem

import (
	"log"
)

// Reserver is the capability to reserve read/write memory at (or near) a
// target address.
type Reserver interface {
	Reserve(addr uintptr, size int) (*Handle, error)
}

// Backing selects what a mapping is backed by.
type Backing int

const (
	// BackingAnonymous maps zero-filled memory with no file behind it.
	BackingAnonymous Backing = iota
	// BackingZeroDevice maps a private view of /dev/zero. Unix only.
	BackingZeroDevice
)

func (b Backing) String() string {
	switch b {
	case BackingAnonymous:
		return "anonymous"
	case BackingZeroDevice:
		return "zero-device"
	}
	return "unknown"
}

type Options struct {
	// Exact rejects any placement other than the page holding the target
	// address. When false the target is only a hint.
	Exact   bool
	Backing Backing
}

// SystemReserver reserves memory from the operating system.
type SystemReserver struct {
	opts Options
}

var DefaultReserver = NewReserver(Options{})

func NewReserver(opts Options) *SystemReserver {
	return &SystemReserver{opts: opts}
}

// Reserve is DefaultReserver.Reserve.
func Reserve(addr uintptr, size int) (*Handle, error) {
	return DefaultReserver.Reserve(addr, size)
}

func (r *SystemReserver) Options() Options {
	return r.opts
}

// Reserve maps at least size read/write bytes for addr. The target is
// rounded down to a page boundary. On success the handle starts at addr if
// the platform honoured the target page, otherwise at the start of whatever
// region it granted. Every failure satisfies errors.Is(err,
// ErrAllocationFailed).
func (r *SystemReserver) Reserve(addr uintptr, size int) (*Handle, error) {
	if size <= 0 {
		return nil, r.fail(addr, size, errInvalidSize)
	}
	page := uintptr(PageSize())
	if addr < page {
		// A zero hint means "anywhere" to the OS, which would turn a bogus
		// target into a success.
		return nil, r.fail(addr, size, errNullPage)
	}

	base := alignDown(addr, page)
	off := addr - base
	length := int(alignUp(off+uintptr(size), page))

	mapped, mapLen, err := mapRegion(base, length, r.opts)
	if err != nil {
		return nil, r.fail(addr, size, err)
	}

	start := mapped + off
	if mapped != base {
		misplaced.Inc()
		if r.opts.Exact {
			if err := unmapRegion(mapped, mapLen); err != nil {
				log.Printf("fixmem: unable to unmap misplaced region at %#x: %v", mapped, err)
			}
			return nil, r.fail(addr, size, errAddressUnavailable)
		}
		start = mapped
	}

	reservations.WithLabelValues(resultOk).Inc()
	reservedBytes.Add(float64(mapLen))
	if debugLog {
		log.Printf("Reserved %d bytes at %#x (target %#x, mapping %#x+%d, %s)",
			size, start, addr, mapped, mapLen, r.opts.Backing)
	}
	return newHandle(start, size, mapped, mapLen), nil
}

func (r *SystemReserver) fail(addr uintptr, size int, err error) error {
	reservations.WithLabelValues(resultFailed).Inc()
	if debugLog {
		mapped, merr := Mapped(addr)
		if merr == nil {
			log.Printf("Reservation of %d bytes at %#x failed (address mapped: %v): %v",
				size, addr, mapped, err)
		} else {
			log.Printf("Reservation of %d bytes at %#x failed: %v", size, addr, err)
		}
	}
	return &AllocationError{Addr: addr, Size: size, Err: err}
}
