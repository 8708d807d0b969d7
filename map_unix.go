//go:build unix && !linux

package fixmem

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const zeroDevice = "/dev/zero"

// There is no portable no-replace flag here, so base is only ever a hint and
// Exact is enforced by the caller's placement check.
func mapRegion(base uintptr, length int, opts Options) (uintptr, int, error) {
	flags := unix.MAP_PRIVATE

	fd := -1
	switch opts.Backing {
	case BackingAnonymous:
		flags |= unix.MAP_ANON
	case BackingZeroDevice:
		f, err := os.OpenFile(zeroDevice, os.O_RDWR, 0)
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
		fd = int(f.Fd())
	default:
		return 0, 0, errBackingUnsupported
	}

	p, err := unix.MmapPtr(fd, 0, unsafe.Pointer(base), uintptr(length),
		unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return 0, 0, err
	}
	return uintptr(p), length, nil
}

func unmapRegion(addr uintptr, length int) error {
	return unix.MunmapPtr(unsafe.Pointer(addr), uintptr(length))
}
