// ABOUTME: Coordinator runs the playback timing loop
// ABOUTME: Fetches frames, paces rendering and corrects audio/video drift
package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

// DefaultMaxSleep bounds both the loop's per-iteration sleep and the time
// StopPlayback waits for each worker to exit.
const DefaultMaxSleep = 3000 * time.Millisecond

// defaultFPS is assumed when a source reports no usable frame rate, such as
// audio-only streams.
var defaultFPS = media.Fraction{Num: 24, Den: 1}

// Config carries the collaborators a Coordinator drives. Source is required
// for playback to start; the rest default to no-ops when nil.
type Config struct {
	Source media.FrameSource
	Audio  AudioEngine
	Video  VideoRenderer
	Cache  FrameCache
	Sink   Sink

	// MaxSleep caps a single loop sleep and bounds worker shutdown.
	// Zero means DefaultMaxSleep.
	MaxSleep time.Duration
}

// Coordinator owns playback state and runs the synchronization loop.
//
// Position and speed are plain atomics rather than lock-guarded state:
// the loop, the audio engine and UI controls each read and write them
// independently, and a stale read costs at most one iteration of drift
// that the next iteration corrects.
type Coordinator struct {
	session  string
	audio    AudioEngine
	video    VideoRenderer
	cache    FrameCache
	sink     Sink
	maxSleep time.Duration

	videoPos atomic.Int64
	audioPos atomic.Int64
	lastPos  atomic.Int64
	speed    atomic.Int64
	looping  atomic.Bool

	// frame is the most recently fetched frame, reused while paused on
	// the same position. Only the loop goroutine touches it.
	frame *media.Frame

	mu     sync.Mutex // guards source and loop lifecycle
	source media.FrameSource
	loop   *loopHandle
}

// NewCoordinator builds a Coordinator around cfg. Initial state is frame 1
// at speed 1, matching a stream about to play from the top.
func NewCoordinator(cfg Config) *Coordinator {
	c := &Coordinator{
		session:  uuid.New().String(),
		source:   cfg.Source,
		audio:    cfg.Audio,
		video:    cfg.Video,
		cache:    cfg.Cache,
		sink:     cfg.Sink,
		maxSleep: cfg.MaxSleep,
	}
	if c.audio == nil {
		c.audio = nopEngine{}
	}
	if c.video == nil {
		c.video = nopRenderer{}
	}
	if c.cache == nil {
		c.cache = nopCache{}
	}
	if c.sink == nil {
		c.sink = NopSink{}
	}
	if c.maxSleep <= 0 {
		c.maxSleep = DefaultMaxSleep
	}
	c.videoPos.Store(1)
	c.lastPos.Store(1)
	c.speed.Store(1)
	return c
}

// Session returns the identifier stamped on every Tick this Coordinator
// records.
func (c *Coordinator) Session() string { return c.session }

// StartPlayback launches the loop goroutine. Any previous loop and its
// workers are stopped first. It returns false, starting nothing, if the
// current position is negative.
func (c *Coordinator) StartPlayback() bool {
	if c.videoPos.Load() < 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	src := c.source
	h := &loopHandle{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	c.loop = h
	c.looping.Store(true)
	go c.run(src, h)
	return true
}

// StopPlayback shuts down the workers and then the loop, waiting up to
// MaxSleep for each. Order matters: audio first so sound stops promptly,
// then the cache, then the renderer, then the loop itself.
func (c *Coordinator) StopPlayback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Coordinator) stopLocked() {
	var info media.StreamInfo
	if c.source != nil {
		info = c.source.Info()
	}
	if info.HasAudio && c.audio.Running() {
		c.audio.Stop(c.maxSleep)
	}
	if info.HasVideo && c.cache.Running() {
		c.cache.Stop(c.maxSleep)
	}
	if info.HasVideo && c.video.Running() {
		c.video.Stop(c.maxSleep)
	}
	if c.loop != nil {
		c.loop.stop(c.maxSleep)
		c.loop = nil
	}
}

// Running reports whether the loop goroutine is active.
func (c *Coordinator) Running() bool { return c.looping.Load() }

// Seek moves the playhead to position, clamped to the source's frame range,
// and nudges the audio engine and cache along with it. The loop picks the
// new position up on its next iteration.
func (c *Coordinator) Seek(position int64) {
	c.mu.Lock()
	src := c.source
	c.mu.Unlock()
	if src == nil || position < 1 {
		return
	}
	if l := src.Info().VideoLength; position > l {
		position = l
	}
	c.videoPos.Store(position)
	c.audio.Seek(position)
	c.cache.SetPosition(position)
}

// Position returns the playhead's current frame.
func (c *Coordinator) Position() int64 { return c.videoPos.Load() }

// SetSpeed changes the per-iteration position step. 1 is normal playback,
// 0 pauses, negative values play in reverse, larger magnitudes shuttle.
func (c *Coordinator) SetSpeed(speed int64) { c.speed.Store(speed) }

// Speed returns the current position step.
func (c *Coordinator) Speed() int64 { return c.speed.Load() }

// SetSource stops playback and swaps the stream, resetting position and
// speed as if a fresh Coordinator had been built.
func (c *Coordinator) SetSource(src media.FrameSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.source = src
	c.frame = nil
	c.videoPos.Store(1)
	c.lastPos.Store(1)
	c.audioPos.Store(0)
	c.speed.Store(1)
}

// Stats is a point-in-time snapshot of playback state.
type Stats struct {
	Session       string `json:"session"`
	VideoPosition int64  `json:"video_position"`
	AudioPosition int64  `json:"audio_position"`
	FrameDiff     int64  `json:"frame_diff"`
	Speed         int64  `json:"speed"`
	Running       bool   `json:"running"`
}

// Stats returns a snapshot of playback state. Fields are sampled
// individually, so a snapshot taken mid-iteration may mix adjacent ticks.
func (c *Coordinator) Stats() Stats {
	vp := c.videoPos.Load()
	ap := c.audioPos.Load()
	return Stats{
		Session:       c.session,
		VideoPosition: vp,
		AudioPosition: ap,
		FrameDiff:     vp - ap,
		Speed:         c.speed.Load(),
		Running:       c.looping.Load(),
	}
}

// run is the playback loop. Each iteration advances the playhead, fetches
// and presents that frame, measures how far video leads or trails audio,
// and sleeps the remainder of the frame's time budget adjusted for drift.
func (c *Coordinator) run(src media.FrameSource, h *loopHandle) {
	defer func() {
		c.looping.Store(false)
		close(h.doneCh)
	}()

	if src == nil {
		return
	}
	info := src.Info()

	if info.HasAudio {
		c.audio.Start(PriorityAudio)
	}
	if info.HasVideo {
		c.cache.Start(PriorityCache)
		c.video.Start(PriorityVideo)
	}

	fps := info.FPS
	if fps.ToFloat() <= 0 {
		fps = defaultFPS
	}
	frameDuration := media.FrameDuration(fps)

	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		started := time.Now()
		frame := c.nextFrame(src, info)

		speed := c.speed.Load()
		pos := c.videoPos.Load()

		// Paused on an already-rendered frame, or past the end of the
		// stream: idle for one frame interval and poll again.
		if (speed == 0 && pos == c.lastPos.Load()) || pos > info.VideoLength {
			c.speed.Store(0)
			if !sleepInterruptible(h.stopCh, frameDuration) {
				return
			}
			continue
		}

		if frame != nil {
			c.video.Present(frame)
		}
		c.lastPos.Store(pos)

		var diff int64
		if info.HasAudio && info.HasVideo {
			// Outside normal playback the engine cannot track on its
			// own; drag it to the current frame.
			if speed != 1 {
				c.audio.Seek(pos)
			}
			ap := c.audio.Position()
			c.audioPos.Store(ap)
			diff = pos - ap
		}

		renderTime := time.Since(started)
		sleepTime := (frameDuration - renderTime).Truncate(time.Millisecond)

		if info.HasAudio && info.HasVideo {
			switch {
			case diff > 0:
				// Video leads: hold this frame longer so audio
				// catches up.
				sleepTime += time.Duration(float64(diff) * float64(frameDuration)).Truncate(time.Millisecond)
			case diff < -10:
				// Video trails badly: jump half the gap forward
				// and render the next frame immediately.
				c.videoPos.Add(-diff / 2)
				sleepTime = 0
			}
		}

		c.sink.Record(Tick{
			Session:       c.session,
			VideoPosition: c.videoPos.Load(),
			AudioPosition: c.audioPos.Load(),
			FrameDiff:     diff,
			Speed:         speed,
			RenderTime:    renderTime,
			SleepTime:     sleepTime,
		})

		if sleepTime > 0 && sleepTime < c.maxSleep {
			if !sleepInterruptible(h.stopCh, sleepTime) {
				return
			}
		}
	}
}

// nextFrame advances the playhead by the current speed and fetches the frame
// there. While parked on the frame rendered last iteration it returns the
// retained frame without touching the source. Fetch failures surface as a
// nil frame; the loop keeps running and retries the position next tick.
func (c *Coordinator) nextFrame(src media.FrameSource, info media.StreamInfo) *media.Frame {
	speed := c.speed.Load()
	pos := c.videoPos.Load()
	if next := pos + speed; next >= 1 && next <= info.VideoLength {
		// CompareAndSwap keeps a concurrent Seek from being clobbered;
		// if it wins, play from where it landed.
		if c.videoPos.CompareAndSwap(pos, next) {
			pos = next
		} else {
			pos = c.videoPos.Load()
		}
	}

	if c.frame != nil && c.frame.Number == pos && pos == c.lastPos.Load() {
		return c.frame
	}

	c.cache.SetPosition(pos)
	f, err := src.GetFrame(pos)
	if err != nil {
		c.frame = nil
		return nil
	}
	c.frame = f
	return f
}

// loopHandle ties one loop goroutine's stop request to its completion.
type loopHandle struct {
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// stop signals the loop and waits up to timeout for it to exit, reporting
// whether it did.
func (h *loopHandle) stop(timeout time.Duration) bool {
	h.once.Do(func() { close(h.stopCh) })
	select {
	case <-h.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// sleepInterruptible sleeps for d unless stop closes first. It reports
// whether the full duration elapsed.
func sleepInterruptible(stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
