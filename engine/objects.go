package engine

import (
	"fmt"

	"halosnap/memory"
)

var objectListHeaderSize = memory.Address(memory.SizeOf[ObjectListHeader]())

// ReadObject follows a pool slot to its object body. The body is trusted only
// when the list header right before it carries both guard markers.
func ReadObject(r memory.Reader, entry ObjectHeaderEntry) (*Object, error) {
	body := memory.FixPointer(entry.Object)
	if body == 0 || body < objectListHeaderSize {
		return nil, nil
	}

	guard, err := memory.Read[ObjectListHeader](r, body-objectListHeaderSize)
	if err != nil {
		return nil, err
	}
	if !guard.IsGuarded() {
		return nil, fmt.Errorf("%w: head 0x%08X tail 0x%08X at %s", ErrGuardMismatch, guard.Head, guard.Tail, body)
	}

	object, err := memory.Read[Object](r, body)
	if err != nil {
		return nil, err
	}
	return &object, nil
}

// reconstructObjects resolves every occupied slot; anything that does not
// check out is absent for this snapshot
func reconstructObjects(r memory.Reader, entries []*ObjectHeaderEntry) []*Object {
	objects := make([]*Object, len(entries))
	for index, entry := range entries {
		if entry == nil {
			continue
		}

		object, err := ReadObject(r, *entry)
		if err != nil {
			continue
		}
		objects[index] = object
	}
	return objects
}
