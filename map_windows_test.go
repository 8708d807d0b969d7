package fixmem

import (
	"testing"
)

func TestReserveCountsGranularityPadding(t *testing.T) {
	addr := testAddr(t, 50)
	base := alignDown(addr, uintptr(PageSize()))
	pad := base - alignDown(base, allocationGranularity)
	if pad == 0 {
		t.Fatalf("target %#x is already granularity aligned", addr)
	}

	h := reserveTest(t, 50, 8)
	if h.Addr() != addr {
		t.Skipf("target %#x unavailable, got %#x", addr, h.Addr())
	}
	if want := PageSize() + int(pad); h.mapLen != want {
		t.Errorf("mapping length %d != %d", h.mapLen, want)
	}
}
