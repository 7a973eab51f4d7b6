// Package enginetest builds small synthetic guest memory windows for tests
package enginetest

import (
	"halosnap/datum"
	"halosnap/engine"
	"halosnap/memory"
	"halosnap/pool"
)

// Addresses places every global inside a WindowSize buffer
var Addresses = engine.Addresses{
	TagHeader:        0x0100,
	GameGlobals:      0x0200,
	ObjectPoolHeader: 0x0400,
	PlayerPoolHeader: 0x0480,
	PlayerGlobals:    0x0500,
	TimeGlobals:      0x0600,
}

const (
	TagArray   = 0x2000
	ObjectData = 0x4000
	Guard      = 0x5000
	ObjectBody = Guard + 24
	PlayerData = 0x6000
	WindowSize = 0x8000

	CyborgTag  = 0xE1000001
	WarthogTag = 0xE1000002

	PlayerID     = 0xE9
	ObjectID     = 7
	UnitID       = 99
	DeadObjectID = 5
)

// Put encodes v at addr. It panics if T has no fixed layout.
func Put[T any](buf []byte, addr memory.Address, v T) {
	raw, err := memory.Encode(v)
	if err != nil {
		panic(err)
	}
	copy(buf[addr:], raw)
}

func PlayerName(s string) (name [12]uint16) {
	for i, r := range []rune(s) {
		if i == len(name) {
			break
		}
		name[i] = uint16(r)
	}
	return name
}

// Window lays out a small but complete world: one guarded biped in slot 0 of
// a four-slot object pool, one local player controlling it, a dead player
// handle pointing at the same slot, and a tag array holding a duplicate and an
// unreadable path.
func Window() []byte {
	buf := make([]byte, WindowSize)

	Put(buf, Addresses.TagHeader, engine.TagHeader{
		TagArray: 0x80000000 | TagArray,
		TagCount: 3,
		Footer:   engine.TagFooter,
	})
	Put(buf, TagArray, engine.TagEntry{Class: 0x62697064, TagIndex: CyborgTag, Path: 0x3000})
	Put(buf, TagArray+32, engine.TagEntry{Class: 0x62697064, TagIndex: CyborgTag, Path: 0x3100})
	Put(buf, TagArray+64, engine.TagEntry{Class: 0x76656869, TagIndex: WarthogTag, Path: 0x00FFFF00})
	copy(buf[0x3000:], "characters\\cyborg\\cyborg\x00")
	copy(buf[0x3100:], "duplicate\x00")

	options := engine.GameOptions{Difficulty: 2, RandomSeed: 1234}
	copy(options.MapNameData[:], "levels\\a10\\a10")
	Put(buf, Addresses.GameGlobals, engine.GameGlobals{MapLoaded: 1, Active: 1, Options: options})

	objects := pool.Header{
		MaxEntries:            4,
		DataSizeof:            12,
		Valid:                 1,
		IdentifierZeroInvalid: 1,
		Signature:             pool.Signature,
		Capacity:              2,
		DataBegin:             0x80000000 | ObjectData,
	}
	copy(objects.Name[:], "object")
	Put(buf, Addresses.ObjectPoolHeader, objects)
	Put(buf, ObjectData, engine.ObjectHeaderEntry{ID: ObjectID, DataType: 0, DataSizeof: 420, Object: 0x80000000 | ObjectBody})

	Put(buf, Guard, engine.ObjectListHeader{Head: engine.GuardHead, TagID: CyborgTag, Tail: engine.GuardTail})
	Put(buf, ObjectBody, engine.Object{
		TagIndex:     CyborgTag,
		Position:     [3]float32{1, 2, 3},
		NextObject:   datum.Invalid,
		FirstChild:   datum.Invalid,
		ParentObject: datum.Invalid,
	})

	players := pool.Header{
		MaxEntries:            4,
		DataSizeof:            212,
		Valid:                 1,
		IdentifierZeroInvalid: 1,
		Signature:             pool.Signature,
		Capacity:              1,
		DataBegin:             PlayerData,
	}
	copy(players.Name[:], "players")
	Put(buf, Addresses.PlayerPoolHeader, players)
	Put(buf, PlayerData, engine.PlayerDataEntry{
		ID:            PlayerID,
		PlayerName:    PlayerName("Chief"),
		SlaveUnit:     datum.New(0, UnitID),
		LastSlaveUnit: datum.Invalid,
	})

	globals := engine.PlayersGlobals{LocalPlayerCount: 1}
	for i := range globals.LocalPlayers {
		globals.LocalPlayers[i] = datum.Invalid
		globals.LocalDeadPlayers[i] = datum.Invalid
	}
	globals.LocalPlayers[0] = datum.New(0, PlayerID)
	globals.LocalDeadPlayers[1] = datum.New(0, DeadObjectID)
	Put(buf, Addresses.PlayerGlobals, globals)

	Put(buf, Addresses.TimeGlobals, engine.TimeGlobals{Initialized: 1, Active: 1, GameTime: 300, Speed: 1})

	return buf
}

// Snapshot builds a snapshot over Window
func Snapshot() (*engine.Snapshot, error) {
	return engine.BuildSnapshot(memory.NewImageFromBytes(0, Window()), Addresses)
}
