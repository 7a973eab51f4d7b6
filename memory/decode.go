package memory

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SizeOf returns the packed little-endian size of T, or 0 if T has no fixed layout
func SizeOf[T any]() uint32 {
	var t T
	size := binary.Size(t)
	if size < 0 {
		return 0
	}
	return uint32(size)
}

// Read decodes a fixed-layout record of type T at addr. Field order and widths
// come from T; blank fields are skipped and nothing is padded implicitly.
func Read[T any](r Reader, addr Address) (T, error) {
	var v T

	size := SizeOf[T]()
	if size == 0 {
		return v, fmt.Errorf("memory.Read: %T has no fixed layout", v)
	}

	data, err := r.ReadMemory(addr, size)
	if err != nil {
		return v, err
	}

	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("memory.Read: decode %T at %s: %w", v, addr, err)
	}
	return v, nil
}

// Encode serializes v with the same layout Read uses
func Encode[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("memory.Encode: %T: %w", v, err)
	}
	return buf.Bytes(), nil
}
