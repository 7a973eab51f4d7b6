// Package memory_map describes the mapped regions of a target process and
// answers whether a host range can be read or written in one transfer
package memory_map

import (
	"fmt"
	"sort"
)

// MemoryMapItem is one mapped region of the target's address space
type MemoryMapItem struct {
	Address uint64
	Size    uint
	Perms   string // /proc/pid/maps style, "rw-s"
	Path    string // backing file or memfd name, empty for anonymous memory
}

func (mmItem MemoryMapItem) String() string {
	s := fmt.Sprintf("%x-%x %s", mmItem.Address, mmItem.End(), mmItem.Perms)
	if mmItem.Path != "" {
		s += " " + mmItem.Path
	}
	return s
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

func (mmItem MemoryMapItem) IsShared() bool {
	return len(mmItem.Perms) > 3 && mmItem.Perms[3] == 's'
}

// Sort orders the map by address, which Find and Covers require
func Sort(mm []MemoryMapItem) {
	sort.Slice(mm, func(i, j int) bool {
		return mm[i].Address < mm[j].Address
	})
}

// Find returns the region holding addr, or nil. mm must be sorted.
func Find(addr uint64, mm []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(mm), func(i int) bool {
		return mm[i].End() > addr
	})
	if i < len(mm) && mm[i].Address <= addr {
		return &mm[i]
	}
	return nil
}

// Covers reports whether [addr, addr+size) lies in back to back regions that
// all satisfy allow. Guest RAM is one mapping, but permission changes can
// split it.
func Covers(addr, size uint64, mm []MemoryMapItem, allow func(MemoryMapItem) bool) bool {
	end := addr + size
	if end < addr {
		return false
	}
	for cursor := addr; cursor < end; {
		item := Find(cursor, mm)
		if item == nil || !allow(*item) {
			return false
		}
		cursor = item.End()
	}
	return true
}

func Readable(item MemoryMapItem) bool { return item.IsReadable() }

func Writable(item MemoryMapItem) bool { return item.IsReadable() && item.IsWritable() }

// GuestCandidates lists read/write regions of at least size bytes, largest
// first. The emulator allocates guest RAM as one such block, so the guest
// window start is usually the Address of the first candidate.
func GuestCandidates(mm []MemoryMapItem, size uint64) []MemoryMapItem {
	var out []MemoryMapItem
	for _, item := range mm {
		if Writable(item) && uint64(item.Size) >= size {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsShared() != out[j].IsShared() {
			return out[i].IsShared()
		}
		return out[i].Size > out[j].Size
	})
	return out
}
