//go:build !unix && !windows

package fixmem

import (
	"errors"
)

func mapRegion(base uintptr, length int, opts Options) (uintptr, int, error) {
	return 0, 0, errors.ErrUnsupported
}

func unmapRegion(addr uintptr, length int) error {
	return errors.ErrUnsupported
}
