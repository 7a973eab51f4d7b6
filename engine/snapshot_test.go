package engine_test

import (
	"errors"
	"testing"

	"halosnap/datum"
	"halosnap/engine"
	"halosnap/engine/enginetest"
	"halosnap/memory"
)

func mustSnapshot(t *testing.T, buf []byte) *engine.Snapshot {
	t.Helper()
	s, err := engine.BuildSnapshot(memory.NewImageFromBytes(0, buf), enginetest.Addresses)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	return s
}

func TestBuildSnapshotComplete(t *testing.T) {
	s := mustSnapshot(t, enginetest.Window())

	if s.Stage != engine.StageComplete {
		t.Fatalf("expected stage %s, got %s", engine.StageComplete, s.Stage)
	}
	if s.GameGlobals.Options.Difficulty != 2 || s.GameGlobals.Options.MapName() != "levels\\a10\\a10" {
		t.Fatalf("unexpected game options %+v", s.GameGlobals.Options)
	}
	if s.TimeGlobals.GameTime != 300 {
		t.Fatalf("unexpected game time %d", s.TimeGlobals.GameTime)
	}

	if len(s.ObjectEntries) != 4 || len(s.Objects) != 4 {
		t.Fatalf("object sequences must have max_entries slots, got %d/%d", len(s.ObjectEntries), len(s.Objects))
	}
	if s.ObjectEntries[0] == nil || s.ObjectEntries[0].ID != enginetest.ObjectID {
		t.Fatalf("slot 0 should hold id %d, got %+v", enginetest.ObjectID, s.ObjectEntries[0])
	}
	for index := 1; index < 4; index++ {
		if s.ObjectEntries[index] != nil || s.Objects[index] != nil {
			t.Fatalf("slot %d should be empty", index)
		}
	}

	object := s.Objects[0]
	if object == nil {
		t.Fatalf("slot 0 should resolve to an object")
	}
	if object.Position != [3]float32{1, 2, 3} {
		t.Fatalf("unexpected position %v", object.Position)
	}
	if object.TagIndex != enginetest.CyborgTag {
		t.Fatalf("unexpected tag index 0x%08X", object.TagIndex)
	}

	if len(s.PlayerEntries) != 4 || s.PlayerEntries[0] == nil {
		t.Fatalf("player slot 0 should be occupied")
	}
	if s.PlayerEntries[0].Name() != "Chief" {
		t.Fatalf("unexpected player name %q", s.PlayerEntries[0].Name())
	}
}

func TestBuildSnapshotTags(t *testing.T) {
	s := mustSnapshot(t, enginetest.Window())

	if path, ok := s.TagPath(enginetest.CyborgTag); !ok || path != "characters\\cyborg\\cyborg" {
		t.Fatalf("first occurrence must win, got %q", path)
	}
	if s.TagName(enginetest.CyborgTag) != "cyborg" {
		t.Fatalf("unexpected tag name %q", s.TagName(enginetest.CyborgTag))
	}

	entry, ok := s.TagEntries[enginetest.WarthogTag]
	if !ok {
		t.Fatalf("an unreadable path must not drop the descriptor")
	}
	if entry.ClassString() != "vehi" {
		t.Fatalf("unexpected class %q", entry.ClassString())
	}
	if _, ok := s.TagPath(enginetest.WarthogTag); ok {
		t.Fatalf("unreadable path must be left out of the path table")
	}
	if s.TagName(enginetest.WarthogTag) != "UNKNOWN" {
		t.Fatalf("missing path should render UNKNOWN")
	}
	if len(s.TagEntries) != 2 {
		t.Fatalf("expected 2 distinct tags, got %d", len(s.TagEntries))
	}
}

func TestBuildSnapshotLookups(t *testing.T) {
	s := mustSnapshot(t, enginetest.Window())

	if local, ok := s.FindLocalPlayerIndexFromUnitIndex(0); !ok || local != 0 {
		t.Fatalf("unit in slot 0 should belong to local player 0, got %d %v", local, ok)
	}
	if _, ok := s.FindLocalPlayerIndexFromUnitIndex(1); ok {
		t.Fatalf("slot 1 has no controlling player")
	}

	// the dead player handle carries a different id than the object
	if pos, ok := s.FindDeadPlayerIndex(s.ObjectHandle(0)); !ok || pos != 1 {
		t.Fatalf("expected dead player position 1, got %d %v", pos, ok)
	}
	if _, ok := s.FindDeadPlayerIndex(datum.New(2, enginetest.DeadObjectID)); ok {
		t.Fatalf("slot 2 must not match a dead player")
	}

	if free, ok := s.FirstFreeObjectIndex(); !ok || free != 1 {
		t.Fatalf("expected first free slot 1, got %d %v", free, ok)
	}

	if got := s.ObjectHandle(0); got != datum.New(0, enginetest.ObjectID) {
		t.Fatalf("unexpected handle %s", got)
	}
	if !s.ObjectHandle(2).IsInvalid() {
		t.Fatalf("empty slot must not produce a handle")
	}
	if s.ObjectForHandle(datum.New(0, 1234)) != s.Objects[0] {
		t.Fatalf("handles resolve by index")
	}

	local := s.LocalPlayers()
	if len(local) != 1 || local[0].Entry == nil || local[0].Entry.ID != enginetest.PlayerID {
		t.Fatalf("unexpected local players %+v", local)
	}
}

func TestGuardCorruptionDropsSlot(t *testing.T) {
	for _, offset := range []memory.Address{0, 20} {
		for bit := 0; bit < 32; bit++ {
			buf := enginetest.Window()
			at := enginetest.Guard + offset + memory.Address(bit/8)
			buf[at] ^= 1 << (bit % 8)

			s := mustSnapshot(t, buf)
			if s.Objects[0] != nil {
				t.Fatalf("flipping bit %d of guard word at +%d must drop the object", bit, offset)
			}
			if s.ObjectEntries[0] == nil {
				t.Fatalf("the pool entry itself stays present")
			}
		}
	}
}

func TestBuildSnapshotRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(buf []byte)
		global engine.Global
		stage  engine.Stage
		kind   error
	}{
		{
			name:   "tag footer",
			mutate: func(buf []byte) { buf[enginetest.Addresses.TagHeader+36] ^= 0x01 },
			global: engine.GlobalTagHeader,
			stage:  engine.StageStart,
			kind:   engine.ErrHeaderSignatureMismatch,
		},
		{
			name:   "difficulty",
			mutate: func(buf []byte) { buf[enginetest.Addresses.GameGlobals+8+6] = 4 },
			global: engine.GlobalGameGlobals,
			stage:  engine.StageTagHeaderValidated,
			kind:   engine.ErrGlobalOutOfRange,
		},
		{
			name: "negative difficulty",
			mutate: func(buf []byte) {
				buf[enginetest.Addresses.GameGlobals+8+6], buf[enginetest.Addresses.GameGlobals+8+7] = 0xFF, 0xFF
			},
			global: engine.GlobalGameGlobals,
			stage:  engine.StageTagHeaderValidated,
			kind:   engine.ErrGlobalOutOfRange,
		},
		{
			name:   "object pool signature",
			mutate: func(buf []byte) { buf[enginetest.Addresses.ObjectPoolHeader+40] = 0 },
			global: engine.GlobalObjectPoolHeader,
			stage:  engine.StageGameGlobalsValidated,
			kind:   engine.ErrHeaderSignatureMismatch,
		},
		{
			name:   "object pool not ready",
			mutate: func(buf []byte) { buf[enginetest.Addresses.ObjectPoolHeader+36] = 0 },
			global: engine.GlobalObjectPoolHeader,
			stage:  engine.StageGameGlobalsValidated,
			kind:   engine.ErrHeaderNotReady,
		},
		{
			name:   "player pool signature",
			mutate: func(buf []byte) { buf[enginetest.Addresses.PlayerPoolHeader+40] ^= 0x80 },
			global: engine.GlobalPlayerPoolHeader,
			stage:  engine.StageObjectHeaderValidated,
			kind:   engine.ErrHeaderSignatureMismatch,
		},
		{
			name:   "player pool not ready",
			mutate: func(buf []byte) { buf[enginetest.Addresses.PlayerPoolHeader+36] = 2 },
			global: engine.GlobalPlayerPoolHeader,
			stage:  engine.StageObjectHeaderValidated,
			kind:   engine.ErrHeaderNotReady,
		},
	}

	for _, c := range cases {
		buf := enginetest.Window()
		c.mutate(buf)

		s, err := engine.BuildSnapshot(memory.NewImageFromBytes(0, buf), enginetest.Addresses)
		if s != nil {
			t.Fatalf("%s: a failed build must not return a snapshot", c.name)
		}

		var verr *engine.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected *ValidationError, got %v", c.name, err)
		}
		if verr.Global != c.global || verr.Stage != c.stage {
			t.Fatalf("%s: unexpected failure point %s/%s", c.name, verr.Stage, verr.Global)
		}
		if !errors.Is(err, c.kind) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.kind, err)
		}
	}
}

func TestBuildSnapshotUnreadableGlobal(t *testing.T) {
	addrs := enginetest.Addresses
	addrs.TimeGlobals = enginetest.WindowSize - 4

	_, err := engine.BuildSnapshot(memory.NewImageFromBytes(0, enginetest.Window()), addrs)
	if !errors.Is(err, engine.ErrGlobalUnreadable) {
		t.Fatalf("expected ErrGlobalUnreadable, got %v", err)
	}
	if !errors.Is(err, memory.ErrOutOfBounds) {
		t.Fatalf("cause should be kept, got %v", err)
	}
}

func TestBuildSnapshotUnsupportedObjectBody(t *testing.T) {
	buf := enginetest.Window()
	// body pointer below the guard size
	enginetest.Put(buf, enginetest.ObjectData, engine.ObjectHeaderEntry{ID: enginetest.ObjectID, Object: 0x80000010})

	s := mustSnapshot(t, buf)
	if s.Objects[0] != nil {
		t.Fatalf("a body too low for its guard must be absent")
	}
}

func TestBuildSnapshotAcceptsAnyTimeAndPlayerGlobals(t *testing.T) {
	buf := enginetest.Window()
	for i := 0; i < int(memory.SizeOf[engine.PlayersGlobals]()); i++ {
		buf[int(enginetest.Addresses.PlayerGlobals)+i] = byte(0xA5 ^ i)
	}
	for i := 0; i < int(memory.SizeOf[engine.TimeGlobals]()); i++ {
		buf[int(enginetest.Addresses.TimeGlobals)+i] = byte(0x5A + i)
	}

	s := mustSnapshot(t, buf)
	if s.Stage != engine.StageComplete {
		t.Fatalf("expected a complete snapshot, got %s", s.Stage)
	}
	if s.TimeGlobals.Paused != 0x5C {
		t.Fatalf("time globals should be kept as read, got %+v", s.TimeGlobals)
	}
}

// countingImage counts descriptor and record reads
type countingImage struct {
	*memory.Image
	reads int
}

func (c *countingImage) ReadMemory(addr memory.Address, size uint32) ([]byte, error) {
	c.reads++
	return c.Image.ReadMemory(addr, size)
}

func TestBuildSnapshotBoundsTagWalk(t *testing.T) {
	for _, size := range []int{enginetest.WindowSize, memory.DefaultWindowSize} {
		buf := make([]byte, size)
		copy(buf, enginetest.Window())
		// footer intact, count torn
		enginetest.Put(buf, enginetest.Addresses.TagHeader+12, uint32(0xFFFFFFFF))

		img := &countingImage{Image: memory.NewImageFromBytes(0, buf)}
		s, err := engine.BuildSnapshot(img, enginetest.Addresses)
		if err != nil {
			t.Fatalf("window 0x%X: %v", size, err)
		}

		limit := int(min(uint64(size), memory.AddressableSize)-enginetest.TagArray)/32 + 64
		if img.reads > limit {
			t.Fatalf("window 0x%X: %d reads, the tag walk must stop within %d", size, img.reads, limit)
		}
		if path, ok := s.TagPath(enginetest.CyborgTag); !ok || path != "characters\\cyborg\\cyborg" {
			t.Fatalf("window 0x%X: cyborg path lost, got %q", size, path)
		}
	}
}
