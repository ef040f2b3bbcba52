// ABOUTME: Caching frame source with a prefetch worker
// ABOUTME: Read-through store keyed by frame number, windowed around the playhead
package cache

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

const (
	// DefaultAhead is how many frames past the playhead to prefetch.
	DefaultAhead = 30
	// DefaultBehind is how many frames behind the playhead to retain.
	DefaultBehind = 10
)

// Config bounds the cache window. Values at or below zero pick the defaults.
type Config struct {
	Ahead  int64
	Behind int64
}

// Cache wraps a FrameSource with an in-memory frame store. Reads go through
// the store, and a prefetch worker keeps the window around the playhead warm
// so the playback loop's fetches rarely touch the underlying source.
//
// Frames in the store are shared pointers; callers must honor the Frame
// immutability contract.
type Cache struct {
	src    media.FrameSource
	store  *gocache.Cache
	ahead  int64
	behind int64

	playhead   atomic.Int64
	wake       chan struct{}
	hits       atomic.Int64
	misses     atomic.Int64
	prefetched atomic.Int64
	running    atomic.Bool

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New wraps src in a Cache with the given window.
func New(src media.FrameSource, cfg Config) *Cache {
	if cfg.Ahead <= 0 {
		cfg.Ahead = DefaultAhead
	}
	if cfg.Behind <= 0 {
		cfg.Behind = DefaultBehind
	}
	return &Cache{
		src:    src,
		store:  gocache.New(gocache.NoExpiration, 0),
		ahead:  cfg.Ahead,
		behind: cfg.Behind,
		wake:   make(chan struct{}, 1),
	}
}

// Info returns the underlying source's metadata.
func (c *Cache) Info() media.StreamInfo { return c.src.Info() }

// GetFrame returns the frame at position, from the store when warm and from
// the underlying source otherwise.
func (c *Cache) GetFrame(position int64) (*media.Frame, error) {
	key := frameKey(position)
	if v, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		return v.(*media.Frame), nil
	}
	c.misses.Add(1)

	frame, err := c.src.GetFrame(position)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, frame, gocache.NoExpiration)
	return frame, nil
}

// Close flushes the store and closes the underlying source.
func (c *Cache) Close() error {
	c.store.Flush()
	return c.src.Close()
}

// SetPosition moves the prefetch window and nudges the worker.
func (c *Cache) SetPosition(position int64) {
	c.playhead.Store(position)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start launches the prefetch worker.
func (c *Cache) Start(priority int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running.Load() {
		return
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.running.Store(true)
	log.Debugf("frame cache started: ahead=%d behind=%d priority=%d", c.ahead, c.behind, priority)
	go c.run(c.stopCh, c.doneCh)
}

// Stop signals the worker and waits up to timeout for it to exit.
func (c *Cache) Stop(timeout time.Duration) bool {
	c.mu.Lock()
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	done := c.doneCh
	c.mu.Unlock()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		log.Warnf("frame cache did not stop within %v", timeout)
		return false
	}
}

// Running reports whether the prefetch worker is active.
func (c *Cache) Running() bool { return c.running.Load() }

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Prefetched int64 `json:"prefetched"`
	Size       int   `json:"size"`
	Running    bool  `json:"running"`
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Prefetched: c.prefetched.Load(),
		Size:       c.store.ItemCount(),
		Running:    c.running.Load(),
	}
}

func (c *Cache) run(stopCh, doneCh chan struct{}) {
	defer func() {
		c.running.Store(false)
		close(doneCh)
	}()

	info := c.src.Info()
	last := int64(1)
	for {
		select {
		case <-stopCh:
			return
		case <-c.wake:
		}

		pos := c.playhead.Load()
		dir := int64(1)
		if pos < last {
			dir = -1
		}
		last = pos
		if !c.fill(pos, dir, info, stopCh) {
			return
		}
		c.evict(pos, dir)
	}
}

// fill warms up to ahead frames past the playhead in the direction of
// travel, stopping at the stream bounds. It reports false when the worker
// should exit.
func (c *Cache) fill(pos, dir int64, info media.StreamInfo, stopCh chan struct{}) bool {
	for n := int64(1); n <= c.ahead; n++ {
		select {
		case <-stopCh:
			return false
		default:
		}
		i := pos + n*dir
		if i < 1 || i > info.VideoLength {
			break
		}
		key := frameKey(i)
		if _, ok := c.store.Get(key); ok {
			continue
		}

		frame, err := c.src.GetFrame(i)
		if err != nil {
			if errors.Is(err, media.ErrSourceUnavailable) {
				log.Info("frame cache: source closed")
				return false
			}
			// Out of range or transient; rest of this round is moot.
			return true
		}
		c.store.Set(key, frame, gocache.NoExpiration)
		c.prefetched.Add(1)
	}
	return true
}

// evict drops frames outside the retained window. The window leads the
// playhead in the direction of travel and trails it on the other side.
func (c *Cache) evict(pos, dir int64) {
	lo, hi := pos-c.behind, pos+c.ahead
	if dir < 0 {
		lo, hi = pos-c.ahead, pos+c.behind
	}
	for key := range c.store.Items() {
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if n < lo || n > hi {
			c.store.Delete(key)
		}
	}
}

func frameKey(position int64) string {
	return strconv.FormatInt(position, 10)
}
