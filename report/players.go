package report

import (
	"fmt"
	"io"

	"halosnap/coloransi"
	"halosnap/datum"
	"halosnap/engine"
)

// PlayerSummary describes one local player and the objects it is tied to
type PlayerSummary struct {
	Slot         int         `yaml:"slot"`
	PoolIndex    uint16      `yaml:"pool_index"`
	Name         string      `yaml:"name,omitempty"`
	Unit         string      `yaml:"unit"`
	NextObject   string      `yaml:"next_object"`
	LastUnit     string      `yaml:"last_unit"`
	Position     *[3]float32 `yaml:"position,omitempty,flow"`
	NextPosition *[3]float32 `yaml:"next_position,omitempty,flow"`
	Missing      bool        `yaml:"missing,omitempty"` // handle valid but no pool entry
}

// Players summarizes every valid local player handle
func Players(s *engine.Snapshot) []PlayerSummary {
	var out []PlayerSummary
	for _, local := range s.LocalPlayers() {
		poolIndex := local.Handle.Index()
		summary := PlayerSummary{
			Slot:       local.Slot,
			PoolIndex:  poolIndex,
			Unit:       datum.Invalid.String(),
			NextObject: datum.Invalid.String(),
			LastUnit:   datum.Invalid.String(),
		}

		// the dead player table is indexed like the player pool
		next := datum.Invalid
		if int(poolIndex) < len(s.PlayerGlobals.LocalDeadPlayers) {
			next = s.PlayerGlobals.LocalDeadPlayers[poolIndex]
		}
		summary.NextObject = next.String()
		summary.NextPosition = positionOf(s, next)

		if local.Entry == nil {
			summary.Missing = true
		} else {
			summary.Name = local.Entry.Name()
			summary.Unit = local.Entry.SlaveUnit.String()
			summary.LastUnit = local.Entry.LastSlaveUnit.String()
			summary.Position = positionOf(s, local.Entry.SlaveUnit)
		}

		out = append(out, summary)
	}
	return out
}

func positionOf(s *engine.Snapshot, handle datum.Datum) *[3]float32 {
	object := s.ObjectForHandle(handle)
	if object == nil {
		return nil
	}
	position := object.Position
	return &position
}

// WritePlayers prints the player globals flags and one block per local player
func WritePlayers(w io.Writer, s *engine.Snapshot) error {
	g := s.PlayerGlobals
	label := func(format string, args ...interface{}) error {
		_, err := fmt.Fprintln(w, coloransi.Foreground(coloransi.ColorOrange, fmt.Sprintf(format, args...)))
		return err
	}

	if err := label("Respawn Failure: %d", g.RespawnFailure); err != nil {
		return err
	}
	if err := label("Are All Dead: %d", g.AreAllDead); err != nil {
		return err
	}
	if err := label("Input Disabled: %d", g.InputDisabled); err != nil {
		return err
	}
	if err := label("Teleported: %d", g.Teleported); err != nil {
		return err
	}

	for _, p := range Players(s) {
		if _, err := fmt.Fprintf(w, "-------------- Player %d %s--------------\n", p.PoolIndex, nameSuffix(p.Name)); err != nil {
			return err
		}
		if p.Missing {
			if err := label("Unit Handle: None"); err != nil {
				return err
			}
		} else {
			if err := label("Current Object Datum: %s", p.Unit); err != nil {
				return err
			}
			if err := label("Last Object Datum: %s", p.LastUnit); err != nil {
				return err
			}
		}
		if err := label("Next Object Datum: %s", p.NextObject); err != nil {
			return err
		}
		if err := label("Position: %s", formatPosition(p.Position)); err != nil {
			return err
		}
		if err := label("Next Datum Position: %s", formatPosition(p.NextPosition)); err != nil {
			return err
		}
	}
	return nil
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return "(" + name + ") "
}
