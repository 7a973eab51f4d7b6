//go:build linux

// Package process_linux transfers bytes in and out of a target with
// process_vm_readv/process_vm_writev. The target keeps running throughout.
package process_linux

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"halosnap/process"
	"halosnap/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Target is an attached emulator process
type Target struct {
	mu  sync.Mutex
	pid process.ProcessID
	mm  []memory_map.MemoryMapItem
	log *logger.Logger
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
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no process with pid %d", pid)
		}
		return err
	}

	mm, err := memory_map.Read(int(pid))
	if err != nil {
		return fmt.Errorf("read memory map of %d: %w", pid, err)
	}

	t.mu.Lock()
	t.pid = pid
	t.mm = mm
	t.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("target-%d", pid)))
	t.mu.Unlock()

	t.log.Infoln("Attached,", len(mm), "regions mapped")
	return nil
}

func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pid != 0 {
		t.log.Infoln("Detached")
	}
	t.pid = 0
	t.mm = nil
	return nil
}

func (t *Target) GetPID() process.ProcessID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pid
}

// UpdateMemoryMap re-reads the map. The emulator may remap guest RAM when a
// machine is reset.
func (t *Target) UpdateMemoryMap() error {
	pid := t.GetPID()
	if pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.Read(int(pid))
	if err != nil {
		return fmt.Errorf("read memory map of %d: %w", pid, err)
	}

	t.mu.Lock()
	t.mm = mm
	t.mu.Unlock()
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

	if t.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	return append([]memory_map.MemoryMapItem(nil), t.mm...), nil
}

// check returns the pid when the whole range passes allow
func (t *Target) check(addr process.ProcessMemoryAddress, size uint64, allow func(memory_map.MemoryMapItem) bool) (process.ProcessID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pid == 0 {
		return 0, process.ErrProcessNotOpen
	}
	if !memory_map.Covers(uint64(addr), size, t.mm, allow) {
		return 0, fmt.Errorf("%s+%d: %w", addr.ToString(), size, process.ErrAddressNotMapped)
	}
	return t.pid, nil
}

// ReadMemory copies size bytes out of the target in one syscall
func (t *Target) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	pid, err := t.check(addr, uint64(size), memory_map.Readable)
	if err != nil {
		return nil, err
	}

	data := make([]byte, size)
	n, err := readv(pid, data, addr)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return data[:n], fmt.Errorf("%w: %d of %d bytes", process.ErrPartialRead, n, len(data))
	}
	return data, nil
}

// WriteMemory copies data into the target. The whole range must be writable.
func (t *Target) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	pid, err := t.check(addr, uint64(len(data)), memory_map.Writable)
	if err != nil {
		return err
	}

	n, err := writev(pid, data, addr)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write at %s: %d of %d bytes", addr.ToString(), n, len(data))
	}

	t.log.Debugln("Wrote", len(data), "bytes at", addr.ToString())
	return nil
}
