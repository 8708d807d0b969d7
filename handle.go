package fixmem

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"github.com/dgryski/go-farm"
)

// Handle owns a reserved region. The memory lives outside the Go heap, so
// the bytes may also change underneath the handle if another process writes
// to them.
type Handle struct {
	addr uintptr
	size int

	// The page-aligned mapping the region sits in.
	mapBase uintptr
	mapLen  int

	mem  []byte
	lock sync.RWMutex
}

func newHandle(addr uintptr, size int, mapBase uintptr, mapLen int) *Handle {
	return &Handle{
		addr:    addr,
		size:    size,
		mapBase: mapBase,
		mapLen:  mapLen,
		mem:     unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
	}
}

func (h *Handle) Addr() uintptr {
	return h.addr
}

func (h *Handle) Size() int {
	return h.size
}

// Bytes returns the region itself, not a copy. Nil once released. A slice
// obtained earlier is invalid after Release: the memory behind it is
// unmapped and touching it faults.
func (h *Handle) Bytes() []byte {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.mem
}

func (h *Handle) checkRange(off int64, n int) error {
	if h.mem == nil {
		return ErrReleased
	}
	if off < 0 || off > int64(h.size) || int64(n) > int64(h.size)-off {
		return ErrOutOfBounds
	}
	return nil
}

func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if err := h.checkRange(off, len(p)); err != nil {
		return 0, err
	}
	return copy(p, h.mem[off:]), nil
}

func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if err := h.checkRange(off, len(p)); err != nil {
		return 0, err
	}
	return copy(h.mem[off:], p), nil
}

// Uint64 reads a native-endian word at off.
func (h *Handle) Uint64(off int) (uint64, error) {
	var buf [8]byte
	if _, err := h.ReadAt(buf[:], int64(off)); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}

// SetUint64 writes a native-endian word at off.
func (h *Handle) SetUint64(off int, v uint64) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], v)
	_, err := h.WriteAt(buf[:], int64(off))
	return err
}

// Fingerprint hashes the region's current contents. Comparing two
// fingerprints tells whether anything rewrote the region in between.
func (h *Handle) Fingerprint() uint64 {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if h.mem == nil {
		return 0
	}
	return farm.Hash64(h.mem)
}

// Release unmaps the region. Releasing twice is a no-op.
func (h *Handle) Release() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.mem == nil {
		return nil
	}
	err := unmapRegion(h.mapBase, h.mapLen)
	if err != nil {
		return err
	}
	h.mem = nil
	reservedBytes.Sub(float64(h.mapLen))
	return nil
}
