package fixmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Reservations on Windows start on allocation-granularity boundaries, which
// are coarser than pages.
const allocationGranularity = 64 * 1024

// mapRegion returns where base landed and how many bytes were actually
// committed, which includes the padding down to the allocation boundary.
func mapRegion(base uintptr, length int, opts Options) (uintptr, int, error) {
	if opts.Backing != BackingAnonymous {
		return 0, 0, errBackingUnsupported
	}

	allocBase := alignDown(base, allocationGranularity)
	pad := base - allocBase
	n := uintptr(length) + pad
	addr, err := windows.VirtualAlloc(allocBase, n,
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if addr == 0 {
		return 0, 0, err
	}
	if addr == allocBase {
		return base, int(n), nil
	}
	return addr, int(n), nil
}

func unmapRegion(addr uintptr, length int) error {
	var info windows.MemoryBasicInformation
	err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info))
	if err != nil {
		return err
	}
	return windows.VirtualFree(info.AllocationBase, 0, windows.MEM_RELEASE)
}
