package fixmem

import (
	"os"
)

var pageSize = os.Getpagesize()

// PageSize returns the granularity the reserver rounds target addresses to.
func PageSize() int {
	return pageSize
}

func alignDown(v, align uintptr) uintptr {
	return v &^ (align - 1)
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
