package procmem

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

const processAccess = windows.PROCESS_VM_READ | windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_OPERATION | windows.PROCESS_QUERY_INFORMATION

type Proc struct {
	pid    int
	handle windows.Handle
}

func Open(pid int) (*Proc, error) {
	h, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return nil, err
	}
	return &Proc{pid: pid, handle: h}, nil
}

// FindByName returns the first process whose executable is name, with or
// without the .exe suffix.
func FindByName(name string) (*Proc, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if strings.EqualFold(exe, name) || strings.EqualFold(strings.TrimSuffix(exe, ".exe"), name) {
			return Open(int(entry.ProcessID))
		}
	}
	return nil, ErrNotFound
}

func (p *Proc) Pid() int {
	return p.pid
}

func (p *Proc) ReadAt(buf []byte, addr uintptr) error {
	if len(buf) == 0 {
		return nil
	}
	var n uintptr
	err := windows.ReadProcessMemory(p.handle, addr, &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return err
	}
	if int(n) != len(buf) {
		return shortTransfer("read", addr, int(n), len(buf))
	}
	return nil
}

func (p *Proc) WriteAt(buf []byte, addr uintptr) error {
	if len(buf) == 0 {
		return nil
	}
	var n uintptr
	err := windows.WriteProcessMemory(p.handle, addr, &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return err
	}
	if int(n) != len(buf) {
		return shortTransfer("write", addr, int(n), len(buf))
	}
	return nil
}

func (p *Proc) Close() error {
	return windows.CloseHandle(p.handle)
}
