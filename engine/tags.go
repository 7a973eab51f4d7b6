package engine

import (
	"halosnap/memory"
)

var tagEntrySize = memory.SizeOf[TagEntry]()

// resolveTags walks the tag array. The first descriptor seen for a tag index
// wins; paths that cannot be read are left out of the path table only.
func resolveTags(r memory.Reader, h TagHeader) (map[uint32]string, map[uint32]TagEntry) {
	paths := make(map[uint32]string)
	entries := make(map[uint32]TagEntry)

	base := uint64(memory.FixPointer(h.TagArray))
	extent := memory.Extent(r)

	// a torn header can pair a good footer with any count; only descriptors
	// that fit between the array start and the end of the window are walked
	count := uint64(h.TagCount)
	if fit := (extent - min(base, extent)) / uint64(tagEntrySize); count > fit {
		count = fit
	}

	for index := uint64(0); index < count; index++ {
		entry, err := memory.Read[TagEntry](r, memory.Address(base+uint64(tagEntrySize)*index))
		if err != nil {
			break
		}

		if _, seen := entries[entry.TagIndex]; seen {
			continue
		}
		entries[entry.TagIndex] = entry

		if path, err := r.ReadString(memory.FixPointer(entry.Path)); err == nil {
			paths[entry.TagIndex] = path
		}
	}

	return paths, entries
}
