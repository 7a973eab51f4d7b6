//go:build windows

package memory_map

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Read walks the committed regions of pid
func Read(pid int) ([]MemoryMapItem, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess: %w", err)
	}
	defer windows.CloseHandle(handle)

	return ReadHandle(handle)
}

// ReadHandle walks the committed regions behind an open process handle with
// VirtualQueryEx. Regions come back in address order.
func ReadHandle(handle windows.Handle) ([]MemoryMapItem, error) {
	var mm []MemoryMapItem
	var mbi windows.MemoryBasicInformation

	for addr := uintptr(0); ; {
		if err := windows.VirtualQueryEx(handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break
		}
		if mbi.RegionSize == 0 {
			break
		}

		if mbi.State == windows.MEM_COMMIT {
			mm = append(mm, MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   perms(mbi.Protect, mbi.Type),
			})
		}

		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	return mm, nil
}

// perms renders a PAGE_* protection in maps notation; section backed memory
// (how the emulator may allocate guest RAM) is reported as shared
func perms(protect, kind uint32) string {
	b := []byte("---p")
	if kind == windows.MEM_MAPPED {
		b[3] = 's'
	}
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return string(b)
	}

	switch protect & 0xFF {
	case windows.PAGE_READONLY:
		b[0] = 'r'
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		b[0], b[1] = 'r', 'w'
	case windows.PAGE_EXECUTE:
		b[2] = 'x'
	case windows.PAGE_EXECUTE_READ:
		b[0], b[2] = 'r', 'x'
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		b[0], b[1], b[2] = 'r', 'w', 'x'
	}
	return string(b)
}
