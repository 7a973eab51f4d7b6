//go:build windows

// Package process_windows transfers bytes in and out of a target with
// ReadProcessMemory/WriteProcessMemory
package process_windows

import (
	"fmt"
	"sync"

	"halosnap/process"
	"halosnap/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const access = windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_QUERY_INFORMATION

// Target is an attached emulator process
type Target struct {
	mu     sync.Mutex
	pid    process.ProcessID
	handle windows.Handle
	mm     []memory_map.MemoryMapItem
	log    *logger.Logger
}

var _ process.Process = (*Target)(nil)

func New() *Target {
	return &Target{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "target-detached")),
	}
}

// NewWithPID attaches to pid
func NewWithPID(pid process.ProcessID) (*Target, error) {
	t := New()
	if err := t.Open(pid); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Target) Open(pid process.ProcessID) error {
	handle, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess %d: %w", pid, err)
	}

	mm, err := memory_map.ReadHandle(handle)
	if err != nil {
		windows.CloseHandle(handle)
		return fmt.Errorf("read memory map of %d: %w", pid, err)
	}

	t.mu.Lock()
	t.pid = pid
	t.handle = handle
	t.mm = mm
	t.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("target-%d", pid)))
	t.mu.Unlock()

	t.log.Infoln("Attached,", len(mm), "regions mapped")
	return nil
}

func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle != 0 {
		if err := windows.CloseHandle(t.handle); err != nil {
			return fmt.Errorf("CloseHandle: %w", err)
		}
		t.log.Infoln("Detached")
	}
	t.handle = 0
	t.pid = 0
	t.mm = nil
	return nil
}

func (t *Target) GetPID() process.ProcessID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pid
}

func (t *Target) UpdateMemoryMap() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle == 0 {
		return process.ErrProcessNotOpen
	}
	mm, err := memory_map.ReadHandle(t.handle)
	if err != nil {
		return err
	}
	t.mm = mm
	return nil
}

func (t *Target) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return memory_map.Covers(uint64(addr), 1, t.mm, memory_map.Readable)
}

func (t *Target) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	return append([]memory_map.MemoryMapItem(nil), t.mm...), nil
}

func (t *Target) check(addr process.ProcessMemoryAddress, size uint64, allow func(memory_map.MemoryMapItem) bool) (windows.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle == 0 {
		return 0, process.ErrProcessNotOpen
	}
	if !memory_map.Covers(uint64(addr), size, t.mm, allow) {
		return 0, fmt.Errorf("%s+%d: %w", addr.ToString(), size, process.ErrAddressNotMapped)
	}
	return t.handle, nil
}

func (t *Target) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	handle, err := t.check(addr, uint64(size), memory_map.Readable)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	var n uintptr
	if err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(size), &n); err != nil {
		return nil, fmt.Errorf("ReadProcessMemory %s: %w", addr.ToString(), err)
	}
	if n != uintptr(size) {
		return buf[:n], fmt.Errorf("%w: %d of %d bytes", process.ErrPartialRead, n, size)
	}
	return buf, nil
}

func (t *Target) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	handle, err := t.check(addr, uint64(len(data)), memory_map.Writable)
	if err != nil {
		return err
	}

	var n uintptr
	if err := windows.WriteProcessMemory(handle, uintptr(addr), &data[0], uintptr(len(data)), &n); err != nil {
		return fmt.Errorf("WriteProcessMemory %s: %w", addr.ToString(), err)
	}
	if n != uintptr(len(data)) {
		return fmt.Errorf("short write at %s: %d of %d bytes", addr.ToString(), n, len(data))
	}

	t.log.Debugln("Wrote", len(data), "bytes at", addr.ToString())
	return nil
}
