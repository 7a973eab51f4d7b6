package report

import (
	"fmt"
	"io"
	"strconv"

	"halosnap/coloransi"
	"halosnap/engine"
	"halosnap/table"
)

// PlayerRef ties an object slot to a local player
type PlayerRef struct {
	Index uint16 `yaml:"index"`
	Dead  bool   `yaml:"dead,omitempty"` // matched through local_dead_players
}

// ObjectRow is one object pool slot as shown to the user
type ObjectRow struct {
	Index     int         `yaml:"index"`
	Free      bool        `yaml:"free,omitempty"`
	FirstFree bool        `yaml:"first_free,omitempty"`
	Datum     string      `yaml:"datum,omitempty"`
	ID        uint16      `yaml:"id,omitempty"`
	NextID    bool        `yaml:"next_id,omitempty"` // id equals the pool's next id
	Player    *PlayerRef  `yaml:"player,omitempty"`
	Position  *[3]float32 `yaml:"position,omitempty,flow"`
	Tag       string      `yaml:"tag,omitempty"`
	TagPath   string      `yaml:"tag_path,omitempty"`
	Type      string      `yaml:"type,omitempty"`
	Untrusted bool        `yaml:"untrusted,omitempty"` // pool entry present, body failed its guard check
}

// ObjectRows returns one row per object pool slot
func ObjectRows(s *engine.Snapshot) []ObjectRow {
	firstFree, hasFree := s.FirstFreeObjectIndex()

	rows := make([]ObjectRow, len(s.Objects))
	for index := range rows {
		row := &rows[index]
		row.Index = index
		row.FirstFree = hasFree && index == firstFree

		entry := s.ObjectEntry(index)
		object := s.Object(index)
		if object == nil {
			row.Free = true
			row.Untrusted = entry != nil
			continue
		}

		handle := s.ObjectHandle(index)
		row.Datum = fmt.Sprintf("0x%08X", handle.Handle())
		row.ID = entry.ID
		row.NextID = entry.ID == s.ObjectHeader.NextID
		row.Type = engine.ObjectTypeName(entry.DataType)
		row.Tag = s.TagName(object.TagIndex)
		row.TagPath, _ = s.TagPath(object.TagIndex)

		position := object.Position
		row.Position = &position

		if player, ok := s.FindLocalPlayerIndexFromUnitIndex(uint16(index)); ok {
			row.Player = &PlayerRef{Index: player}
		} else if dead, ok := s.FindDeadPlayerIndex(handle); ok {
			row.Player = &PlayerRef{Index: dead, Dead: true}
		}
	}
	return rows
}

type ObjectTableOptions struct {
	OnlyOccupied bool
	// Selected is a slot to mark, or -1
	Selected int
}

// WriteObjects renders the object pool as a table. The first free slot is
// orange, players are green and dead players red.
func WriteObjects(w io.Writer, s *engine.Snapshot, options ObjectTableOptions) error {
	t := table.New(
		table.ColumnSpec{Header: "", BlankValue: " "},
		table.ColumnSpec{Header: "Datum"},
		table.ColumnSpec{Header: "Index", AlignRight: true},
		table.ColumnSpec{Header: "ID", MinWidth: 5},
		table.ColumnSpec{Header: "Player", BlankValue: " "},
		table.ColumnSpec{Header: "Coordinates", BlankValue: " "},
		table.ColumnSpec{Header: "Tag", BlankValue: " "},
		table.ColumnSpec{Header: "Type", BlankValue: " "},
	)

	for _, row := range ObjectRows(s) {
		if options.OnlyOccupied && row.Free {
			continue
		}

		marker := ""
		if row.Index == options.Selected {
			marker = ">"
		}

		index := strconv.Itoa(row.Index)
		if row.Free {
			id := "Free"
			if row.Untrusted {
				id = "Guard"
			}
			indexColor := coloransi.Red
			if row.FirstFree {
				indexColor = coloransi.ColorOrange
			}
			t.AddRow(marker, " ", coloransi.Foreground(indexColor, index), id)
			continue
		}

		slotColor := coloransi.Green
		if row.FirstFree {
			slotColor = coloransi.ColorOrange
		}
		idColor := coloransi.White
		if row.NextID {
			idColor = coloransi.ColorOrange
		}

		player := ""
		if row.Player != nil {
			color := coloransi.Green
			if row.Player.Dead {
				color = coloransi.Red
			}
			player = coloransi.Foreground(color, strconv.Itoa(int(row.Player.Index)))
		}

		t.AddRow(
			marker,
			coloransi.Foreground(slotColor, row.Datum),
			coloransi.Foreground(slotColor, index),
			coloransi.Foreground(idColor, strconv.Itoa(int(row.ID))),
			player,
			formatPosition(row.Position),
			row.Tag,
			row.Type,
		)
	}

	return t.Render(w)
}

func formatPosition(p *[3]float32) string {
	if p == nil {
		return "None"
	}
	return fmt.Sprintf("X: %.4f Y: %.4f Z: %.4f", p[0], p[1], p[2])
}
