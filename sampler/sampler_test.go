package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"halosnap/engine"
	"halosnap/engine/enginetest"
	"halosnap/memory"
)

// scriptedSource serves a fixed window and fails Refresh on demand
type scriptedSource struct {
	*memory.Image

	mu         sync.Mutex
	refreshErr error
	refreshes  int
}

func newScriptedSource(buf []byte) *scriptedSource {
	return &scriptedSource{Image: memory.NewImageFromBytes(0, buf)}
}

func (s *scriptedSource) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.refreshErr
}

func (s *scriptedSource) fail(err error) {
	s.mu.Lock()
	s.refreshErr = err
	s.mu.Unlock()
}

func TestSamplePublishesAndClears(t *testing.T) {
	src := newScriptedSource(enginetest.Window())
	s := New(src, enginetest.Addresses, time.Millisecond)

	if s.Latest() != nil {
		t.Fatalf("nothing sampled yet")
	}

	snapshot, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if s.Latest() != snapshot || snapshot.Stage != engine.StageComplete {
		t.Fatalf("expected the complete snapshot to be published")
	}

	refreshErr := errors.New("target went away")
	src.fail(refreshErr)
	if _, err := s.Sample(); !errors.Is(err, refreshErr) {
		t.Fatalf("expected refresh error, got %v", err)
	}
	if s.Latest() != nil {
		t.Fatalf("a failed attempt must clear the published snapshot")
	}
	if !errors.Is(s.LastError(), refreshErr) {
		t.Fatalf("unexpected last error %v", s.LastError())
	}

	src.fail(nil)
	if _, err := s.Sample(); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if s.Latest() == nil || s.LastError() != nil {
		t.Fatalf("a good attempt must publish again")
	}
	if s.Samples() != 3 {
		t.Fatalf("expected 3 samples, got %d", s.Samples())
	}
}

func TestSampleValidationFailure(t *testing.T) {
	buf := enginetest.Window()
	buf[enginetest.Addresses.TagHeader+36] = 0

	s := New(newScriptedSource(buf), enginetest.Addresses, time.Millisecond)
	_, err := s.Sample()

	var verr *engine.ValidationError
	if !errors.As(err, &verr) || verr.Global != engine.GlobalTagHeader {
		t.Fatalf("expected a tag header failure, got %v", err)
	}
	if s.Latest() != nil {
		t.Fatalf("no snapshot may be published")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	src := newScriptedSource(enginetest.Window())
	s := New(src, enginetest.Addresses, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan struct{}, 1)
	s.OnSample = func(snapshot *engine.Snapshot, err error) {
		if snapshot != nil && s.Samples() >= 3 {
			select {
			case seen <- struct{}{}:
			default:
			}
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatalf("sampler did not produce snapshots")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	if s.Latest() == nil {
		t.Fatalf("latest snapshot should be available after Run")
	}
}
