package fixmem

import (
	"errors"
	"testing"
)

func TestReserveZeroDevice(t *testing.T) {
	r := NewReserver(Options{Backing: BackingZeroDevice})
	h, err := r.Reserve(testAddr(t, 40), 8)
	if err != nil {
		t.Fatalf("Reserve error %v", err)
	}
	defer h.Release()

	if v, _ := h.Uint64(0); v != 0 {
		t.Errorf("zero device mapping reads %d", v)
	}
	h.SetUint64(0, 42)
	if v, _ := h.Uint64(0); v != 42 {
		t.Errorf("read %d != 42", v)
	}
}

func TestReserveUnknownBacking(t *testing.T) {
	r := NewReserver(Options{Backing: Backing(99)})
	_, err := r.Reserve(testAddr(t, 41), 8)
	if !errors.Is(err, ErrAllocationFailed) || !errors.Is(err, errBackingUnsupported) {
		t.Errorf("error %v", err)
	}
}

func TestReserveOverExistingMapping(t *testing.T) {
	occupied := reserveTest(t, 42, 8)

	r := NewReserver(Options{Exact: true})
	_, err := r.Reserve(occupied.Addr(), 8)
	if !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("exact reservation over a mapping: error %v", err)
	}

	// Hint mode relocates instead.
	h, err := Reserve(occupied.Addr(), 8)
	if err != nil {
		t.Fatalf("hint reservation error %v", err)
	}
	defer h.Release()
	if h.Addr() == occupied.Addr() {
		t.Errorf("hint reservation landed on the occupied address")
	}
}
