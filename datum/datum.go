package datum

import (
	"fmt"
)

// Invalid is the raw value the engine stores for "no reference"
const Invalid Datum = 0xFFFFFFFF

// Datum is a 32-bit pool handle: slot index in the low word, generation id in the high word
type Datum uint32

// New composes a handle from a slot index and a generation id
func New(index, id uint16) Datum {
	return Datum(uint32(id)<<16 | uint32(index))
}

// FromRaw wraps a raw handle value read from memory
func FromRaw(handle uint32) Datum {
	return Datum(handle)
}

// Index returns the pool slot index (low word)
func (d Datum) Index() uint16 {
	return uint16(uint32(d) & 0xFFFF)
}

// ID returns the generation identifier (high word)
func (d Datum) ID() uint16 {
	return uint16((uint32(d) >> 16) & 0xFFFF)
}

// Handle returns the raw 32-bit value
func (d Datum) Handle() uint32 {
	return uint32(d)
}

func (d Datum) IsInvalid() bool {
	return d == Invalid
}

// SameIndex reports whether both handles address the same pool slot.
// The game itself only checks the index half in several code paths, so
// player/object correlation must not compare the id.
func (d Datum) SameIndex(other Datum) bool {
	return d.Index() == other.Index()
}

func (d Datum) String() string {
	if d.IsInvalid() {
		return "NONE"
	}
	return fmt.Sprintf("0x%08X (index %d, id %d)", uint32(d), d.Index(), d.ID())
}
