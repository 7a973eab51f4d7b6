package report

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"halosnap/coloransi"
	"halosnap/engine"
	"halosnap/hexdump"
	"halosnap/memory"
)

var ErrEmptySlot = errors.New("object slot is empty")

var (
	guardHeadSize   = memory.SizeOf[engine.ObjectListHeader]()
	objectBodySize  = memory.SizeOf[engine.Object]()
	guardHeadBytes  = binary.LittleEndian.AppendUint32(nil, engine.GuardHead)
	guardTailBytes  = binary.LittleEndian.AppendUint32(nil, engine.GuardTail)
	kernelPointerHi = uint32(0x80000000)
)

// WriteObjectDump hex dumps the list header and body of the object in slot
// index. Slots whose guard failed are dumped too, which is usually why one
// looks at them.
func WriteObjectDump(w io.Writer, r memory.Reader, s *engine.Snapshot, index int) error {
	entry := s.ObjectEntry(index)
	if entry == nil {
		return fmt.Errorf("dump slot %d: %w", index, ErrEmptySlot)
	}

	body := memory.FixPointer(entry.Object)
	if body < memory.Address(guardHeadSize) {
		return fmt.Errorf("dump slot %d: body at %s: %w", index, body, memory.ErrOutOfBounds)
	}
	start := body - memory.Address(guardHeadSize)

	data, err := r.ReadMemory(start, guardHeadSize+objectBodySize)
	if err != nil {
		return fmt.Errorf("dump slot %d: %w", index, err)
	}

	state := coloransi.Foreground(coloransi.Green, "guarded")
	if s.Object(index) == nil {
		state = coloransi.Foreground(coloransi.Red, "guard mismatch")
	}
	if _, err := fmt.Fprintf(w, "slot %d %s type %s body %s (%s)\n",
		index, s.ObjectHandle(index), engine.ObjectTypeName(entry.DataType), body, state); err != nil {
		return err
	}

	hexdump.DumpToWriter(w, data, DumpOptions(r, s, start))
	return nil
}

// DumpOptions configures a dump of guest memory starting at start: guard
// markers are highlighted and words that look like tags, handles or
// pointers into the window are annotated
func DumpOptions(r memory.Reader, s *engine.Snapshot, start memory.Address) hexdump.Options {
	options := hexdump.DefaultOptions()
	options.StartOffset = uint64(start)
	options.Highlights = []hexdump.Highlight{
		{Pattern: guardHeadBytes, Foreground: coloransi.Black, Background: coloransi.ColorLimeGreen},
		{Pattern: guardTailBytes, Foreground: coloransi.Black, Background: coloransi.ColorLimeGreen},
	}
	options.Words = func(word uint32) string {
		return describeWord(r, s, word)
	}
	return options
}

func describeWord(r memory.Reader, s *engine.Snapshot, word uint32) string {
	switch word {
	case 0, 0xFFFFFFFF:
		return ""
	case engine.GuardHead:
		return "head"
	case engine.GuardTail:
		return "tail"
	}

	if _, ok := s.TagEntries[word]; ok {
		return "tag:" + s.TagName(word)
	}

	if word&0xFF000000 == kernelPointerHi {
		addr := memory.FixPointer(memory.Address(word))
		if _, err := r.ReadMemory(addr, 1); err == nil {
			return "->" + addr.String()
		}
	}
	return ""
}
