package fixmem

import (
	"github.com/prometheus/procfs"
)

// Mapped reports whether addr falls inside any mapping of this process.
func Mapped(addr uintptr) (bool, error) {
	self, err := procfs.Self()
	if err != nil {
		return false, err
	}
	maps, err := self.ProcMaps()
	if err != nil {
		return false, err
	}
	return findMapping(maps, addr), nil
}

func findMapping(maps []*procfs.ProcMap, addr uintptr) bool {
	for _, m := range maps {
		if addr >= m.StartAddr && addr < m.EndAddr {
			return true
		}
	}
	return false
}
