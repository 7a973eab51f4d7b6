package engine

import (
	"fmt"

	"halosnap/memory"
	"halosnap/pool"
)

// readGlobal decodes a required structure, mapping window misses to ErrGlobalUnreadable
func readGlobal[T any](r memory.Reader, addr memory.Address) (T, error) {
	v, err := memory.Read[T](r, addr)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrGlobalUnreadable, err)
	}
	return v, nil
}

func ValidateTagHeader(h TagHeader) error {
	if h.Footer != TagFooter {
		return fmt.Errorf("%w: tag footer 0x%08X", ErrHeaderSignatureMismatch, h.Footer)
	}
	return nil
}

func ValidateGameGlobals(g GameGlobals) error {
	if g.Options.Difficulty < 0 || g.Options.Difficulty >= NumberOfDifficulties {
		return fmt.Errorf("%w: difficulty %d", ErrGlobalOutOfRange, g.Options.Difficulty)
	}
	return nil
}

func ValidatePoolHeader(h pool.Header) error {
	if !h.IsSignatureValid() {
		return fmt.Errorf("%w: pool signature 0x%08X", ErrHeaderSignatureMismatch, h.Signature)
	}
	if h.Valid != 1 {
		return fmt.Errorf("%w: pool %q valid flag %d", ErrHeaderNotReady, h.NameString(), h.Valid)
	}
	return nil
}

// ValidatePlayersGlobals accepts everything; no reliable predicate is known yet
func ValidatePlayersGlobals(PlayersGlobals) error {
	return nil
}

// ValidateTimeGlobals accepts everything; no reliable predicate is known yet
func ValidateTimeGlobals(TimeGlobals) error {
	return nil
}

func ReadTagHeader(r memory.Reader, addr memory.Address) (TagHeader, error) {
	h, err := readGlobal[TagHeader](r, addr)
	if err != nil {
		return h, err
	}
	return h, ValidateTagHeader(h)
}

func ReadGameGlobals(r memory.Reader, addr memory.Address) (GameGlobals, error) {
	g, err := readGlobal[GameGlobals](r, addr)
	if err != nil {
		return g, err
	}
	return g, ValidateGameGlobals(g)
}

func ReadPoolHeader(r memory.Reader, addr memory.Address) (pool.Header, error) {
	h, err := readGlobal[pool.Header](r, addr)
	if err != nil {
		return h, err
	}
	return h, ValidatePoolHeader(h)
}

func ReadPlayersGlobals(r memory.Reader, addr memory.Address) (PlayersGlobals, error) {
	g, err := readGlobal[PlayersGlobals](r, addr)
	if err != nil {
		return g, err
	}
	return g, ValidatePlayersGlobals(g)
}

func ReadTimeGlobals(r memory.Reader, addr memory.Address) (TimeGlobals, error) {
	g, err := readGlobal[TimeGlobals](r, addr)
	if err != nil {
		return g, err
	}
	return g, ValidateTimeGlobals(g)
}
