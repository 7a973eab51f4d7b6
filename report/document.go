// Package report turns snapshots into terminal tables, YAML documents and
// annotated hex dumps
package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"halosnap/coloransi"
	"halosnap/engine"
)

// Document is the serializable view of one snapshot
type Document struct {
	Stage      string          `yaml:"stage"`
	Map        string          `yaml:"map"`
	Difficulty int16           `yaml:"difficulty"`
	GameTime   uint32          `yaml:"game_time"`
	Pools      PoolSummary     `yaml:"pools"`
	Globals    GlobalsSummary  `yaml:"player_globals"`
	Players    []PlayerSummary `yaml:"players"`
	Objects    []ObjectRow     `yaml:"objects"`
	Tags       int             `yaml:"tags"`
}

type PoolSummary struct {
	ObjectMaxEntries uint16 `yaml:"object_max_entries"`
	ObjectCapacity   uint16 `yaml:"object_capacity"`
	NextObjectIndex  uint16 `yaml:"next_object_index"`
	FirstFreeIndex   int    `yaml:"first_free_index"` // -1 when the pool is full
	NextObjectID     uint16 `yaml:"next_object_id"`
	PlayerMaxEntries uint16 `yaml:"player_max_entries"`
}

type GlobalsSummary struct {
	LocalPlayerCount uint16 `yaml:"local_player_count"`
	RespawnFailure   uint16 `yaml:"respawn_failure"`
	AreAllDead       bool   `yaml:"are_all_dead"`
	InputDisabled    bool   `yaml:"input_disabled"`
	Teleported       bool   `yaml:"teleported"`
}

// NewDocument collects everything the reports show. Free slots are left out
// of Objects unless includeFree is set.
func NewDocument(s *engine.Snapshot, includeFree bool) Document {
	firstFree, ok := s.FirstFreeObjectIndex()
	if !ok {
		firstFree = -1
	}

	var objects []ObjectRow
	for _, row := range ObjectRows(s) {
		if row.Free && !includeFree {
			continue
		}
		objects = append(objects, row)
	}

	g := s.PlayerGlobals
	return Document{
		Stage:      s.Stage.String(),
		Map:        s.GameGlobals.Options.MapName(),
		Difficulty: s.GameGlobals.Options.Difficulty,
		GameTime:   s.TimeGlobals.GameTime,
		Pools: PoolSummary{
			ObjectMaxEntries: s.ObjectHeader.MaxEntries,
			ObjectCapacity:   s.ObjectHeader.Capacity,
			NextObjectIndex:  s.ObjectHeader.NextIndex,
			FirstFreeIndex:   firstFree,
			NextObjectID:     s.ObjectHeader.NextID,
			PlayerMaxEntries: s.PlayerHeader.MaxEntries,
		},
		Globals: GlobalsSummary{
			LocalPlayerCount: g.LocalPlayerCount,
			RespawnFailure:   g.RespawnFailure,
			AreAllDead:       g.AreAllDead != 0,
			InputDisabled:    g.InputDisabled != 0,
			Teleported:       g.Teleported != 0,
		},
		Players: Players(s),
		Objects: objects,
		Tags:    len(s.TagEntries),
	}
}

func WriteYAML(w io.Writer, s *engine.Snapshot, includeFree bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(s, includeFree)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

// WriteHeader prints the one-line pool status shown above the object table
func WriteHeader(w io.Writer, s *engine.Snapshot) error {
	firstFree := "full"
	if index, ok := s.FirstFreeObjectIndex(); ok {
		firstFree = fmt.Sprint(index)
	}
	_, err := fmt.Fprintln(w, coloransi.Foreground(coloransi.ColorOrange, fmt.Sprintf(
		"Map: %s | Difficulty: %d | Next Object Index: %d (%s) | Next Object ID: %d",
		s.GameGlobals.Options.MapName(),
		s.GameGlobals.Options.Difficulty,
		s.ObjectHeader.NextIndex,
		firstFree,
		s.ObjectHeader.NextID,
	)))
	return err
}

// WriteTable prints the header, the players and the object table
func WriteTable(w io.Writer, s *engine.Snapshot, options ObjectTableOptions) error {
	if err := WriteHeader(w, s); err != nil {
		return err
	}
	if err := WritePlayers(w, s); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return WriteObjects(w, s, options)
}
