package engine_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"halosnap/engine"
	"halosnap/engine/enginetest"
	"halosnap/memory"
)

type recordingWriter struct {
	addr memory.Address
	data []byte
	err  error
}

func (w *recordingWriter) Write(addr memory.Address, data []byte) error {
	w.addr, w.data = addr, data
	return w.err
}

func TestSetObjectPosition(t *testing.T) {
	s := mustSnapshot(t, enginetest.Window())

	w := &recordingWriter{}
	if err := s.SetObjectPosition(w, 0, [3]float32{10, 20, -5}); err != nil {
		t.Fatalf("SetObjectPosition: %v", err)
	}
	if w.addr != enginetest.ObjectBody+engine.PositionOffset {
		t.Fatalf("expected write at %s, got %s", memory.Address(enginetest.ObjectBody+engine.PositionOffset), w.addr)
	}
	if len(w.data) != 12 {
		t.Fatalf("expected 12 bytes, got %d", len(w.data))
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(w.data[8:])) != -5 {
		t.Fatalf("unexpected z in %x", w.data)
	}

	if s.Objects[0].Position != [3]float32{1, 2, 3} {
		t.Fatalf("the snapshot must not change")
	}
}

func TestSetObjectPositionEmptySlot(t *testing.T) {
	s := mustSnapshot(t, enginetest.Window())
	if err := s.SetObjectPosition(&recordingWriter{}, 3, [3]float32{}); !errors.Is(err, engine.ErrNoObject) {
		t.Fatalf("expected ErrNoObject, got %v", err)
	}
}

func TestSetObjectPositionWriteError(t *testing.T) {
	s := mustSnapshot(t, enginetest.Window())
	if err := s.SetObjectPosition(&recordingWriter{err: memory.ErrNoSource}, 0, [3]float32{}); !errors.Is(err, memory.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}
