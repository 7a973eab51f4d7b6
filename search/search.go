// Package search locates engine structures in a captured window by their
// magic values, for builds whose global addresses are not known yet
package search

import (
	"bytes"
	"encoding/binary"
	"strings"

	"halosnap/engine"
	"halosnap/memory"
	"halosnap/pool"
)

// Searcher holds configuration for the search
type Searcher struct {
	Alignment uint32
	// MaxResults stops the scan early, 0 for no limit
	MaxResults int
}

// Option is a function that configures a Searcher
type Option func(*Searcher)

func WithAlignment(align uint32) Option {
	return func(s *Searcher) {
		s.Alignment = align
	}
}

func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		s.MaxResults = n
	}
}

func newSearcher(options []Option) *Searcher {
	s := &Searcher{Alignment: 4}
	for _, opt := range options {
		opt(s)
	}
	if s.Alignment == 0 {
		s.Alignment = 1
	}
	return s
}

// PoolMatch is a pool header found in the window
type PoolMatch struct {
	Address memory.Address
	Header  pool.Header
}

// TagHeaderMatch is a tag header candidate found in the window
type TagHeaderMatch struct {
	Address memory.Address
	Header  engine.TagHeader
}

var (
	poolSignatureOffset = 40
	tagFooterOffset     = 36
	poolHeaderSize      = memory.SizeOf[pool.Header]()
	tagHeaderSize       = memory.SizeOf[engine.TagHeader]()
)

// scan calls match for every aligned offset where needle sits at
// needleOffset inside a record of recordSize bytes
func (s *Searcher) scan(data []byte, needle uint32, needleOffset int, recordSize uint32, match func(start int) bool) {
	var pattern [4]byte
	binary.LittleEndian.PutUint32(pattern[:], needle)

	found := 0
	for at := 0; ; {
		i := bytes.Index(data[at:], pattern[:])
		if i < 0 {
			return
		}
		at += i

		start := at - needleOffset
		if start >= 0 && uint32(start)%s.Alignment == 0 && start+int(recordSize) <= len(data) {
			if match(start) {
				found++
				if s.MaxResults > 0 && found >= s.MaxResults {
					return
				}
			}
		}
		at++
	}
}

// FindPools returns every plausible "d@t@" pool header in the window. A
// candidate needs a name and a non-zero slot size; the valid flag is not
// required since a pool may be between maps.
func FindPools(r memory.Reader, data []byte, options ...Option) []PoolMatch {
	s := newSearcher(options)

	var matches []PoolMatch
	s.scan(data, pool.Signature, poolSignatureOffset, poolHeaderSize, func(start int) bool {
		h, err := memory.Read[pool.Header](r, memory.Address(start))
		if err != nil || !h.IsSignatureValid() || h.DataSizeof == 0 || h.NameString() == "" {
			return false
		}
		matches = append(matches, PoolMatch{Address: memory.Address(start), Header: h})
		return true
	})
	return matches
}

// FindTagHeaders returns tag header candidates whose footer matches and whose
// tag array lies inside the window
func FindTagHeaders(r memory.Reader, data []byte, options ...Option) []TagHeaderMatch {
	s := newSearcher(options)

	var matches []TagHeaderMatch
	s.scan(data, engine.TagFooter, tagFooterOffset, tagHeaderSize, func(start int) bool {
		h, err := memory.Read[engine.TagHeader](r, memory.Address(start))
		if err != nil || h.TagCount == 0 {
			return false
		}
		if _, err := r.ReadMemory(memory.FixPointer(h.TagArray), 1); err != nil {
			return false
		}
		matches = append(matches, TagHeaderMatch{Address: memory.Address(start), Header: h})
		return true
	})
	return matches
}

// SuggestAddresses fills the pool and tag header addresses it can find into
// base. Pools are recognized by name. The globals that carry no magic keep
// their base values. It reports whether anything changed.
func SuggestAddresses(r memory.Reader, data []byte, base engine.Addresses) (engine.Addresses, bool) {
	out := base
	changed := false

	for _, m := range FindPools(r, data) {
		switch name := strings.ToLower(m.Header.NameString()); name {
		case "object":
			changed = changed || out.ObjectPoolHeader != m.Address
			out.ObjectPoolHeader = m.Address
		case "players":
			changed = changed || out.PlayerPoolHeader != m.Address
			out.PlayerPoolHeader = m.Address
		}
	}

	if tags := FindTagHeaders(r, data, WithMaxResults(1)); len(tags) == 1 {
		changed = changed || out.TagHeader != tags[0].Address
		out.TagHeader = tags[0].Address
	}

	return out, changed
}
