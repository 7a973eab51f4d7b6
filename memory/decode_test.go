package memory

import (
	"bytes"
	"errors"
	"testing"
)

type sample struct {
	ID    uint16
	_     [2]byte
	Value int32
	Ptr   Address
	Pos   [2]float32
}

func TestReadDecodesPackedLayout(t *testing.T) {
	raw := []byte{
		0xFF, 0xFF, // pad
		0x07, 0x00, // ID
		0xEE, 0xEE, // blank
		0xFE, 0xFF, 0xFF, 0xFF, // Value -2
		0x10, 0x20, 0x30, 0x80, // Ptr
		0x00, 0x00, 0x80, 0x3F, // 1.0
		0x00, 0x00, 0x00, 0xC0, // -2.0
	}
	img := NewImageFromBytes(0, raw)

	if SizeOf[sample]() != 20 {
		t.Fatalf("expected packed size 20, got %d", SizeOf[sample]())
	}

	v, err := Read[sample](img, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.ID != 7 || v.Value != -2 || v.Ptr != 0x80302010 {
		t.Fatalf("unexpected decode %+v", v)
	}
	if v.Pos != [2]float32{1, -2} {
		t.Fatalf("unexpected floats %v", v.Pos)
	}

	if _, err := Read[sample](img, 8); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestEncodeMatchesRead(t *testing.T) {
	in := sample{ID: 3, Value: 99, Ptr: 0x00112233, Pos: [2]float32{0.5, 4}}
	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("expected 20 bytes, got %d", len(raw))
	}
	if !bytes.Equal(raw[2:4], []byte{0, 0}) {
		t.Fatalf("blank field must encode as zero, got %v", raw[2:4])
	}

	out, err := Read[sample](NewImageFromBytes(0, raw), 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestReadRejectsVariableLayout(t *testing.T) {
	img := NewImageFromBytes(0, make([]byte, 16))
	if _, err := Read[[]byte](img, 0); err == nil {
		t.Fatalf("slices have no fixed layout and must be rejected")
	}
}
