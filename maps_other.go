//go:build !linux && !windows

package fixmem

import (
	"errors"
)

func Mapped(addr uintptr) (bool, error) {
	return false, errors.ErrUnsupported
}
