package engine

import (
	"errors"
	"fmt"

	"halosnap/memory"
)

var ErrNoObject = errors.New("no object in slot")

// SetObjectPosition overwrites the position of the object in slot index in
// the live target. The snapshot itself is not modified; the new position shows
// up in the next snapshot.
func (s *Snapshot) SetObjectPosition(w memory.Writer, index int, position [3]float32) error {
	entry := s.ObjectEntry(index)
	if entry == nil || s.Object(index) == nil {
		return fmt.Errorf("set position of slot %d: %w", index, ErrNoObject)
	}

	data, err := memory.Encode(position)
	if err != nil {
		return err
	}

	addr := memory.FixPointer(entry.Object) + PositionOffset
	if err := w.Write(addr, data); err != nil {
		return fmt.Errorf("set position of slot %d: %w", index, err)
	}
	return nil
}
