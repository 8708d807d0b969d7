package fixmem

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocationFailed matches every reservation failure via errors.Is.
	ErrAllocationFailed = errors.New("allocation failed")

	ErrOutOfBounds = errors.New("access out of bounds")
	ErrReleased    = errors.New("handle released")

	errInvalidSize        = errors.New("size must be positive")
	errNullPage           = errors.New("target address is in the null page")
	errAddressUnavailable = errors.New("region placed away from target address")
	errMisaligned         = errors.New("region misaligned for element type")
	errBackingUnsupported = errors.New("backing not supported on this platform")
)

// AllocationError reports a reservation the platform (or the reserver
// itself) declined. Err is the underlying cause, typically an errno.
type AllocationError struct {
	Addr uintptr
	Size int
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("fixmem: allocation of %d bytes at %#x failed: %v", e.Size, e.Addr, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocationFailed
}
