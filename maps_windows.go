package fixmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const memFree = 0x10000

// Mapped reports whether addr falls inside a reserved or committed region of
// this process.
func Mapped(addr uintptr) (bool, error) {
	var info windows.MemoryBasicInformation
	err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info))
	if err != nil {
		return false, err
	}
	return info.State != memFree, nil
}
