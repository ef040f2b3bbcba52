// ABOUTME: Tests for the caching frame source
// ABOUTME: Covers read-through hits, prefetch, eviction and close
package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Cadence-Player/cadence-go/pkg/media"
	"github.com/Cadence-Player/cadence-go/pkg/playback"
)

// countingSource tracks how often each position was fetched.
type countingSource struct {
	mu     sync.Mutex
	info   media.StreamInfo
	counts map[int64]int
	closed bool
}

func newCountingSource(length int64) *countingSource {
	return &countingSource{
		info: media.StreamInfo{
			HasVideo:    true,
			FPS:         media.Fraction{Num: 24, Den: 1},
			VideoLength: length,
		},
		counts: make(map[int64]int),
	}
}

func (s *countingSource) Info() media.StreamInfo { return s.info }

func (s *countingSource) GetFrame(position int64) (*media.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, media.ErrSourceUnavailable
	}
	if position < 1 || position > s.info.VideoLength {
		return nil, media.ErrOutOfRange
	}
	s.counts[position]++
	return &media.Frame{Number: position}, nil
}

func (s *countingSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *countingSource) count(position int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[position]
}

func (s *countingSource) maxFetched() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for p := range s.counts {
		if p > max {
			max = p
		}
	}
	return max
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReadThroughCachesFrames(t *testing.T) {
	src := newCountingSource(100)
	c := New(src, Config{})

	f1, err := c.GetFrame(5)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	f2, err := c.GetFrame(5)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}

	if f1 != f2 {
		t.Error("second read should return the cached frame pointer")
	}
	if got := src.count(5); got != 1 {
		t.Errorf("source fetched %d times, expected 1", got)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits=%d misses=%d, expected 1 and 1", stats.Hits, stats.Misses)
	}
}

func TestOutOfRangePropagatesWithoutCaching(t *testing.T) {
	src := newCountingSource(10)
	c := New(src, Config{})

	if _, err := c.GetFrame(11); !errors.Is(err, media.ErrOutOfRange) {
		t.Fatalf("err = %v, expected ErrOutOfRange", err)
	}
	if got := c.Stats().Size; got != 0 {
		t.Errorf("store size = %d, expected 0 after failed fetch", got)
	}
}

func TestPrefetchWarmsAhead(t *testing.T) {
	src := newCountingSource(200)
	c := New(src, Config{Ahead: 5, Behind: 2})

	c.Start(playback.PriorityCache)
	defer c.Stop(time.Second)

	c.SetPosition(10)
	waitFor(t, func() bool { return src.count(15) == 1 },
		"prefetch never reached the end of the window")

	// The window stops at playhead+ahead.
	if got := src.maxFetched(); got != 15 {
		t.Errorf("prefetch went to %d, expected to stop at 15", got)
	}

	// Reads inside the warm window are hits, not source fetches.
	if _, err := c.GetFrame(12); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if got := src.count(12); got != 1 {
		t.Errorf("warm read hit the source: %d fetches, expected 1", got)
	}
}

func TestPrefetchStopsAtStreamEnd(t *testing.T) {
	src := newCountingSource(12)
	c := New(src, Config{Ahead: 5, Behind: 2})

	c.Start(playback.PriorityCache)
	defer c.Stop(time.Second)

	c.SetPosition(10)
	waitFor(t, func() bool { return src.count(12) == 1 },
		"prefetch never reached the last frame")

	time.Sleep(20 * time.Millisecond)
	if got := src.maxFetched(); got > 12 {
		t.Errorf("prefetch asked for frame %d past the end", got)
	}
}

func TestEvictionOutsideWindow(t *testing.T) {
	src := newCountingSource(200)
	c := New(src, Config{Ahead: 5, Behind: 2})

	c.Start(playback.PriorityCache)
	defer c.Stop(time.Second)

	if _, err := c.GetFrame(10); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}

	c.SetPosition(100)
	waitFor(t, func() bool { return src.count(105) == 1 },
		"prefetch never warmed the new window")
	waitFor(t, func() bool { return c.Stats().Size <= 8 },
		"stale frames never evicted")

	// Frame 10 is outside [98, 105] and must have been dropped.
	if _, err := c.GetFrame(10); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if got := src.count(10); got != 2 {
		t.Errorf("source fetched frame 10 %d times, expected 2 after eviction", got)
	}
}

func TestReversePrefetchLeadsThePlayhead(t *testing.T) {
	src := newCountingSource(200)
	c := New(src, Config{Ahead: 5, Behind: 2})

	c.Start(playback.PriorityCache)
	defer c.Stop(time.Second)

	c.SetPosition(100)
	waitFor(t, func() bool { return src.count(105) == 1 },
		"forward prefetch never warmed the window")

	// Moving the playhead backwards flips the prefetch direction.
	c.SetPosition(90)
	waitFor(t, func() bool { return src.count(85) == 1 },
		"reverse prefetch never warmed frames behind the playhead")

	if got := src.count(95); got != 0 {
		t.Errorf("source fetched frame 95 %d times, expected 0 during reverse travel", got)
	}

	// The retained window leads backwards now; 105 fell out of it.
	waitFor(t, func() bool { return c.Stats().Size <= 7 },
		"frames ahead of the old window never evicted")
	if _, err := c.GetFrame(105); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if got := src.count(105); got != 2 {
		t.Errorf("source fetched frame 105 %d times, expected 2 after eviction", got)
	}
}

func TestCloseFlushesStore(t *testing.T) {
	src := newCountingSource(100)
	c := New(src, Config{})

	if _, err := c.GetFrame(5); err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := c.Stats().Size; got != 0 {
		t.Errorf("store size = %d, expected 0 after Close", got)
	}
	if _, err := c.GetFrame(5); !errors.Is(err, media.ErrSourceUnavailable) {
		t.Errorf("err = %v, expected ErrSourceUnavailable after Close", err)
	}
}

func TestWorkerExitsWhenSourceCloses(t *testing.T) {
	src := newCountingSource(1000)
	c := New(src, Config{Ahead: 5, Behind: 2})

	c.Start(playback.PriorityCache)
	src.Close()
	c.SetPosition(10)

	waitFor(t, func() bool { return !c.Running() },
		"prefetch worker kept running after the source closed")
}

func TestWorkerLifecycle(t *testing.T) {
	src := newCountingSource(100)
	c := New(src, Config{})

	if !c.Stop(time.Second) {
		t.Error("Stop before Start should report success")
	}

	c.Start(playback.PriorityCache)
	c.Start(playback.PriorityCache)
	if !c.Running() {
		t.Error("worker should report running after Start")
	}

	if !c.Stop(time.Second) {
		t.Error("Stop timed out")
	}
	if c.Running() {
		t.Error("worker reports running after Stop")
	}
}
