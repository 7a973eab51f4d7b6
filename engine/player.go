package engine

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"halosnap/datum"
)

var playerNameDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Name decodes the fixed UTF-16LE player name
func (p PlayerDataEntry) Name() string {
	raw := make([]byte, 0, len(p.PlayerName)*2)
	for _, unit := range p.PlayerName {
		if unit == 0 {
			break
		}
		raw = binary.LittleEndian.AppendUint16(raw, unit)
	}

	name, err := playerNameDecoder.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(name))
}

// LocalPlayer pairs a local player slot with its pool entry
type LocalPlayer struct {
	Slot   int
	Handle datum.Datum
	Entry  *PlayerDataEntry
}

// LocalPlayers lists the valid handles in the player globals, in storage order
func (s *Snapshot) LocalPlayers() []LocalPlayer {
	var players []LocalPlayer
	for slot, handle := range s.PlayerGlobals.LocalPlayers {
		if handle.IsInvalid() {
			continue
		}
		players = append(players, LocalPlayer{
			Slot:   slot,
			Handle: handle,
			Entry:  s.Player(int(handle.Index())),
		})
	}
	return players
}
