package engine

import (
	"bytes"

	"halosnap/datum"
	"halosnap/memory"
)

// Magic values used to prove a read landed on a live structure
const (
	GuardHead uint32 = 1751474532 // "deah"
	GuardTail uint32 = 1952541036 // "liat"
	TagFooter uint32 = 1935896178 // "rncs", tags backwards
)

const (
	MaxLocalPlayers         = 4
	NumberOfDifficulties    = 4
	outgoingObjectFunctions = 4
	maxRegionsPerObject     = 8
)

// Addresses are the fixed guest locations of the engine globals. The defaults
// match the retail Xbox build.
type Addresses struct {
	ObjectPoolHeader memory.Address `toml:"object_pool_header" yaml:"object_pool_header"`
	PlayerPoolHeader memory.Address `toml:"player_pool_header" yaml:"player_pool_header"`
	TagHeader        memory.Address `toml:"tag_header" yaml:"tag_header"`
	PlayerGlobals    memory.Address `toml:"player_globals" yaml:"player_globals"`
	GameGlobals      memory.Address `toml:"game_globals" yaml:"game_globals"`
	TimeGlobals      memory.Address `toml:"time_globals" yaml:"time_globals"`
}

func DefaultAddresses() Addresses {
	return Addresses{
		ObjectPoolHeader: 0x000B9370,
		PlayerPoolHeader: 0x00213C50,
		TagHeader:        0x003A6000,
		PlayerGlobals:    0x00214E00,
		GameGlobals:      0x0027629C,
		TimeGlobals:      0x002F8CA0,
	}
}

// TagHeader sits at the start of the loaded map's tag data
type TagHeader struct {
	TagArray      memory.Address
	TagIndex      uint32
	MapID         uint32
	TagCount      uint32
	VertexCount   uint32
	VertexOffset  uint32
	IndexCount    uint32
	IndexOffset   uint32
	ModelDataSize uint32
	Footer        uint32
}

type TagEntry struct {
	Class          uint32
	ClassSecondary uint32
	ClassTertiary  uint32
	TagIndex       uint32
	Path           memory.Address
	Data           memory.Address
	_              [2]uint32
}

// ClassString renders a four character class code such as "bipd"
func (t TagEntry) ClassString() string {
	return fourCC(t.Class)
}

func fourCC(v uint32) string {
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return string(bytes.TrimRight(b, "\x00 "))
}

// ObjectHeaderEntry is one slot of the object pool
type ObjectHeaderEntry struct {
	ID         uint16
	_          uint8
	DataType   uint8
	_          uint16
	DataSizeof uint16
	Object     memory.Address
}

// ObjectListHeader precedes every object body allocated from the object pool
type ObjectListHeader struct {
	Head     uint32
	TagID    uint32
	_        uint32
	Next     memory.Address
	Previous memory.Address
	Tail     uint32
}

func (h ObjectListHeader) IsGuarded() bool {
	return h.Head == GuardHead && h.Tail == GuardTail
}

// Object is the fixed part of every simulation object
type Object struct {
	TagIndex     uint32
	Flags        uint32
	_            uint32
	Position     [3]float32
	Velocity     [3]float32
	Forward      [3]float32
	Up           [3]float32
	AngularVel   [3]float32
	_            uint32
	_            datum.Datum
	Center       [3]float32
	Radius       float32
	Scale        float32
	ObjectType   int16
	_            [5]int16
	_            [4]uint32
	_            [4]int16
	_            uint32
	_            [3]float32
	_            uint32
	_            float32
	_            uint32
	_            [2]float32
	_            [2]uint32
	_            int16
	_            [2]int8
	_            [3]uint32
	NextObject   datum.Datum
	FirstChild   datum.Datum
	ParentObject datum.Datum
	_            [5]float32
	_            [outgoingObjectFunctions]float32
	_            [8]uint8
	_            [32]uint8
	_            [2]uint32
	_            [2]uint16
	_            [maxRegionsPerObject]uint8
	_            [maxRegionsPerObject]uint8
	_            [0x60]uint8
	_            [3]uint32
}

// PositionOffset is where Object.Position lives inside the body
const PositionOffset = 0xC

type PlayerDataEntry struct {
	ID               uint16
	LocalPlayerIndex uint16
	PlayerName       [12]uint16
	_                [6]int32
	SlaveUnit        datum.Datum
	LastSlaveUnit    datum.Datum
	_                [150]uint8
	_                [2]uint8
}

type PlayersGlobals struct {
	_                         int32
	LocalPlayers              [MaxLocalPlayers]datum.Datum
	LocalDeadPlayers          [MaxLocalPlayers]datum.Datum
	LocalPlayerCount          uint16
	DoubleSpeedTicksRemaining uint16
	AreAllDead                uint8
	InputDisabled             uint8
	BSPTagIndex               uint16
	RespawnFailure            uint16
	Teleported                uint8
	Flags                     uint8
	CombinedPVS               [0x40]uint8
	CombinedPVSLocal          [0x40]uint8
}

type GameOptions struct {
	_           int32
	_           int16
	Difficulty  int16
	RandomSeed  uint32
	MapNameData [256]byte
}

func (o GameOptions) MapName() string {
	if i := bytes.IndexByte(o.MapNameData[:], 0); i >= 0 {
		return string(o.MapNameData[:i])
	}
	return string(o.MapNameData[:])
}

type GameGlobals struct {
	MapLoaded          uint8
	Active             uint8
	PlayersDoubleSpeed uint8
	MapLoading         uint8
	MapLoadProgress    float32
	Options            GameOptions
}

type TimeGlobals struct {
	Initialized uint8
	Active      uint8
	Paused      uint8
	_           uint8
	_           [2]uint16
	GameTime    uint32
	ElapsedTime uint32
	_           uint32
	Speed       float32
	LeftoverDT  float32
}
