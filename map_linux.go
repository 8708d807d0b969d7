package fixmem

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const zeroDevice = "/dev/zero"

// mapRegion maps length bytes read/write, preferably at base. Kernels older
// than 4.17 treat MAP_FIXED_NOREPLACE as a plain hint, which the caller's
// placement check catches.
func mapRegion(base uintptr, length int, opts Options) (uintptr, int, error) {
	flags := unix.MAP_PRIVATE
	if opts.Exact {
		flags |= unix.MAP_FIXED_NOREPLACE
	}

	fd := -1
	switch opts.Backing {
	case BackingAnonymous:
		flags |= unix.MAP_ANONYMOUS
	case BackingZeroDevice:
		f, err := os.OpenFile(zeroDevice, os.O_RDWR, 0)
		if err != nil {
			return 0, 0, err
		}
		// The mapping holds its own reference to the device.
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
