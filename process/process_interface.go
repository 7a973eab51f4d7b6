package process

import (
	"halosnap/process/memory_map"
)

// Process moves bytes in and out of a running target without stopping it.
// Live backends implement it per OS; a loaded capture implements it read-only.
type Process interface {
	Open(pid ProcessID) error
	Close() error
	GetPID() ProcessID

	// UpdateMemoryMap re-reads the region list used for address checks
	UpdateMemoryMap() error
	IsValidAddress(addr ProcessMemoryAddress) bool
	// GetMemoryMap returns a copy of the region list
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// ReadMemory returns exactly size bytes or an error. A short transfer
	// returns the bytes it got together with ErrPartialRead.
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}
