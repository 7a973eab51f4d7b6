//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"halosnap/process"

	"golang.org/x/sys/unix"
)

// transfer runs process_vm_readv or process_vm_writev for a single
// local/remote iovec pair
func transfer(trap uintptr, pid process.ProcessID, local []byte, remote process.ProcessMemoryAddress) (int, error) {
	localIov := unix.Iovec{Base: &local[0]}
	localIov.SetLen(len(local))

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remote),
		Len:  len(local),
	}

	n, _, errno := unix.Syscall6(
		trap,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIov)), 1,
		uintptr(unsafe.Pointer(&remoteIov)), 1,
		0,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

func readv(pid process.ProcessID, buf []byte, addr process.ProcessMemoryAddress) (int, error) {
	n, err := transfer(unix.SYS_PROCESS_VM_READV, pid, buf, addr)
	if err != nil {
		return 0, fmt.Errorf("process_vm_readv %s: %w", addr.ToString(), err)
	}
	return n, nil
}

// writev copies buf first so the caller may reuse it while the syscall runs
func writev(pid process.ProcessID, buf []byte, addr process.ProcessMemoryAddress) (int, error) {
	data := append([]byte(nil), buf...)
	n, err := transfer(unix.SYS_PROCESS_VM_WRITEV, pid, data, addr)
	if err != nil {
		return 0, fmt.Errorf("process_vm_writev %s: %w", addr.ToString(), err)
	}
	return n, nil
}
