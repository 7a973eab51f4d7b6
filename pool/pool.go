// Package pool reads the engine's fixed-capacity data arrays ("d@t@" pools)
package pool

import (
	"bytes"
	"encoding/binary"

	"halosnap/memory"
)

// Signature is the "d@t@" magic every live pool header carries
const Signature uint32 = 1681945664

// Header is the pool descriptor the engine keeps in front of every data array
type Header struct {
	Name                  [32]byte
	MaxEntries            uint16
	DataSizeof            uint16
	Valid                 uint8
	IdentifierZeroInvalid uint8
	_                     uint16
	Signature             uint32
	NextIndex             uint16
	Capacity              uint16
	Size                  uint16
	NextID                uint16
	DataBegin             memory.Address
}

func (h Header) IsSignatureValid() bool {
	return h.Signature == Signature
}

// IsValid reports whether the pool may be scanned
func (h Header) IsValid() bool {
	return h.IsSignatureValid() && h.Valid == 1
}

func (h Header) NameString() string {
	if i := bytes.IndexByte(h.Name[:], 0); i >= 0 {
		return string(h.Name[:i])
	}
	return string(h.Name[:])
}

// Layout describes how a record type sits in a slot
type Layout struct {
	Size     uint32 // decoded bytes per record
	IDOffset uint32 // offset of the leading u16 identifier
}

// LayoutOf returns the layout of T. Every pool record the engine keeps starts
// with its 16-bit identifier.
func LayoutOf[T any]() Layout {
	return Layout{Size: memory.SizeOf[T](), IDOffset: 0}
}

// Read scans a validated pool and returns MaxEntries slots, nil where a slot
// is empty or could not be decoded. Callers must check h.IsValid first.
func Read[T any](r memory.Reader, h Header) []*T {
	return ReadWithLayout[T](r, h, LayoutOf[T]())
}

// ReadWithLayout is Read with an explicit slot layout
func ReadWithLayout[T any](r memory.Reader, h Header, layout Layout) []*T {
	entries := make([]*T, h.MaxEntries)
	if layout.Size == 0 {
		return entries
	}

	// Capacity can briefly exceed MaxEntries in a torn read
	capacity := int(h.Capacity)
	if capacity > len(entries) {
		capacity = len(entries)
	}

	dataBegin := memory.FixPointer(h.DataBegin)
	for index := capacity - 1; index >= 0; index-- {
		slot := dataBegin + memory.Address(uint32(h.DataSizeof)*uint32(index))

		raw, err := r.ReadMemory(slot+memory.Address(layout.IDOffset), 2)
		if err != nil {
			continue
		}
		id := binary.LittleEndian.Uint16(raw)

		if id == 0 && h.IdentifierZeroInvalid != 0 {
			continue
		}

		entry, err := memory.Read[T](r, slot)
		if err != nil {
			continue
		}
		entries[index] = &entry
	}

	return entries
}
