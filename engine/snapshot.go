package engine

import (
	"strings"

	"halosnap/datum"
	"halosnap/memory"
	"halosnap/pool"
)

// Snapshot is one validated read pass over the captured window. Pool slices
// are indexed by slot; nil marks an empty or untrusted slot.
type Snapshot struct {
	Stage Stage

	TagHeader     TagHeader
	GameGlobals   GameGlobals
	TimeGlobals   TimeGlobals
	PlayerGlobals PlayersGlobals

	ObjectHeader  pool.Header
	ObjectEntries []*ObjectHeaderEntry
	Objects       []*Object

	PlayerHeader  pool.Header
	PlayerEntries []*PlayerDataEntry

	Tags       map[uint32]string
	TagEntries map[uint32]TagEntry
}

// BuildSnapshot validates every required global in order and then reads the
// pools and tag tables. It returns either a complete snapshot or a
// *ValidationError naming the structure that failed.
func BuildSnapshot(r memory.Reader, addrs Addresses) (*Snapshot, error) {
	s := &Snapshot{Stage: StageStart}
	fail := func(global Global, err error) (*Snapshot, error) {
		return nil, &ValidationError{Stage: s.Stage, Global: global, Err: err}
	}

	var err error

	if s.TagHeader, err = ReadTagHeader(r, addrs.TagHeader); err != nil {
		return fail(GlobalTagHeader, err)
	}
	s.Stage = StageTagHeaderValidated

	if s.GameGlobals, err = ReadGameGlobals(r, addrs.GameGlobals); err != nil {
		return fail(GlobalGameGlobals, err)
	}
	s.Stage = StageGameGlobalsValidated

	if s.ObjectHeader, err = ReadPoolHeader(r, addrs.ObjectPoolHeader); err != nil {
		return fail(GlobalObjectPoolHeader, err)
	}
	s.Stage = StageObjectHeaderValidated

	if s.PlayerHeader, err = ReadPoolHeader(r, addrs.PlayerPoolHeader); err != nil {
		return fail(GlobalPlayerPoolHeader, err)
	}
	s.Stage = StagePlayerHeaderValidated

	if s.PlayerGlobals, err = ReadPlayersGlobals(r, addrs.PlayerGlobals); err != nil {
		return fail(GlobalPlayerGlobals, err)
	}
	s.Stage = StagePlayerGlobalsValidated

	if s.TimeGlobals, err = ReadTimeGlobals(r, addrs.TimeGlobals); err != nil {
		return fail(GlobalTimeGlobals, err)
	}
	s.Stage = StageTimeGlobalsValidated

	s.ObjectEntries = pool.Read[ObjectHeaderEntry](r, s.ObjectHeader)
	s.PlayerEntries = pool.Read[PlayerDataEntry](r, s.PlayerHeader)
	s.Objects = reconstructObjects(r, s.ObjectEntries)
	s.Stage = StageEntriesRead

	s.Tags, s.TagEntries = resolveTags(r, s.TagHeader)
	s.Stage = StageTagsResolved

	s.Stage = StageComplete
	return s, nil
}

// FindLocalPlayerIndexFromUnitIndex returns the local player index of the
// first player controlling the unit in slot unitIndex. Only the index half of
// the handle is compared: during some transitions the game hands out units
// whose id does not match yet.
func (s *Snapshot) FindLocalPlayerIndexFromUnitIndex(unitIndex uint16) (uint16, bool) {
	for _, player := range s.PlayerEntries {
		if player == nil {
			continue
		}
		if player.SlaveUnit.Index() == unitIndex {
			return player.LocalPlayerIndex, true
		}
	}
	return 0, false
}

// FindDeadPlayerIndex returns the position in LocalDeadPlayers whose handle
// addresses the same slot as object
func (s *Snapshot) FindDeadPlayerIndex(object datum.Datum) (uint16, bool) {
	for i, handle := range s.PlayerGlobals.LocalDeadPlayers {
		if handle.SameIndex(object) {
			return uint16(i), true
		}
	}
	return 0, false
}

// FirstFreeObjectIndex returns the first slot without an object. The pool's
// NextIndex is not always consistent with it.
func (s *Snapshot) FirstFreeObjectIndex() (int, bool) {
	for index, object := range s.Objects {
		if object == nil {
			return index, true
		}
	}
	return 0, false
}

func (s *Snapshot) Object(index int) *Object {
	if index < 0 || index >= len(s.Objects) {
		return nil
	}
	return s.Objects[index]
}

func (s *Snapshot) ObjectEntry(index int) *ObjectHeaderEntry {
	if index < 0 || index >= len(s.ObjectEntries) {
		return nil
	}
	return s.ObjectEntries[index]
}

// ObjectHandle rebuilds the handle of an occupied object slot
func (s *Snapshot) ObjectHandle(index int) datum.Datum {
	entry := s.ObjectEntry(index)
	if entry == nil {
		return datum.Invalid
	}
	return datum.New(uint16(index), entry.ID)
}

func (s *Snapshot) Player(index int) *PlayerDataEntry {
	if index < 0 || index >= len(s.PlayerEntries) {
		return nil
	}
	return s.PlayerEntries[index]
}

// ObjectForHandle follows a handle by slot index
func (s *Snapshot) ObjectForHandle(handle datum.Datum) *Object {
	if handle.IsInvalid() {
		return nil
	}
	return s.Object(int(handle.Index()))
}

func (s *Snapshot) TagPath(tagIndex uint32) (string, bool) {
	path, ok := s.Tags[tagIndex]
	return path, ok
}

// TagName returns the last path component of a tag, or "UNKNOWN"
func (s *Snapshot) TagName(tagIndex uint32) string {
	path, ok := s.Tags[tagIndex]
	if !ok {
		return "UNKNOWN"
	}
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		return path[i+1:]
	}
	return path
}
