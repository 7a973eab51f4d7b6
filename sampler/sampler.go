// Package sampler runs the capture and build cycle on a fixed cadence
package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"halosnap/engine"
	"halosnap/memory"
)

// Source is a memory window that can be re-captured
type Source interface {
	memory.Reader
	Refresh() error
}

// Sampler keeps the most recent snapshot. A failed attempt clears it, so
// readers never see a snapshot older than the last attempt.
type Sampler struct {
	source    Source
	addresses engine.Addresses
	interval  time.Duration

	// OnSample, if set, is called from Run after every attempt
	OnSample func(*engine.Snapshot, error)

	mu      sync.RWMutex
	latest  *engine.Snapshot
	lastErr error
	samples uint64

	log *logger.Logger
}

func New(source Source, addresses engine.Addresses, interval time.Duration) *Sampler {
	return &Sampler{
		source:    source,
		addresses: addresses,
		interval:  interval,
		log:       logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "sampler")),
	}
}

// Sample captures the window once and builds a snapshot from it
func (s *Sampler) Sample() (*engine.Snapshot, error) {
	snapshot, err := s.sample()

	s.mu.Lock()
	wasValid := s.latest != nil
	first := s.samples == 0
	s.latest = snapshot
	s.lastErr = err
	s.samples++
	s.mu.Unlock()

	switch {
	case err != nil && (wasValid || first):
		s.log.Infoln("Snapshot unavailable:", err)
	case err == nil && !wasValid:
		s.log.Infoln("Snapshot available,", countObjects(snapshot), "objects")
	}

	return snapshot, err
}

func (s *Sampler) sample() (*engine.Snapshot, error) {
	if err := s.source.Refresh(); err != nil {
		return nil, err
	}
	return engine.BuildSnapshot(s.source, s.addresses)
}

// Run samples until ctx is cancelled and returns ctx.Err()
func (s *Sampler) Run(ctx context.Context) error {
	s.log.Debugln("Sampling every", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		snapshot, err := s.Sample()
		if s.OnSample != nil {
			s.OnSample(snapshot, err)
		}

		select {
		case <-ctx.Done():
			s.log.Debugln("Sampler stopped after", s.Samples(), "samples")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Latest returns the snapshot of the most recent attempt, or nil if it failed
func (s *Sampler) Latest() *engine.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Sampler) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Sampler) Samples() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samples
}

func countObjects(snapshot *engine.Snapshot) int {
	n := 0
	for _, object := range snapshot.Objects {
		if object != nil {
			n++
		}
	}
	return n
}
