// ABOUTME: Worker interfaces for the playback execution units
// ABOUTME: Defines lifecycle contract and scheduling priorities
package playback

import (
	"time"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

// Scheduling priorities for the playback execution units. Higher values are
// more latency sensitive. Workers treat the value as an advisory hint; the
// Go runtime does not expose hard thread priorities.
const (
	PriorityAudio = 8
	PriorityVideo = 4
	PriorityCache = 2
	PriorityLoop  = 1
)

// Worker is the lifecycle contract shared by all playback execution units.
type Worker interface {
	// Start launches the worker's goroutine. The priority hint tells the
	// worker how latency sensitive its duties are.
	Start(priority int)
	// Stop requests termination and waits for the worker to exit, up to
	// timeout. It reports whether the worker exited in time.
	Stop(timeout time.Duration) bool
	// Running reports whether the worker's goroutine is active.
	Running() bool
}

// AudioEngine consumes audio samples at its own pace and exposes the frame
// position it is currently audible at.
type AudioEngine interface {
	Worker
	// Seek repositions the engine's playback cursor to the given frame.
	Seek(position int64)
	// Position returns the frame currently being heard.
	Position() int64
}

// VideoRenderer displays frames handed to it by the Coordinator.
type VideoRenderer interface {
	Worker
	// Present asks the renderer to display frame. Delivery is
	// fire-and-forget; the renderer may drop frames under load.
	Present(frame *media.Frame)
}

// FrameCache prefetches frames around the playhead so Coordinator fetches
// hit warm storage.
type FrameCache interface {
	Worker
	// SetPosition tells the cache where the playhead is so it can read
	// ahead from there.
	SetPosition(position int64)
}

// Nop workers stand in for collaborators the caller did not provide, so the
// Coordinator never has to nil-check.

type nopEngine struct{}

func (nopEngine) Start(int)               {}
func (nopEngine) Stop(time.Duration) bool { return true }
func (nopEngine) Running() bool           { return false }
func (nopEngine) Seek(int64)              {}
func (nopEngine) Position() int64         { return 0 }

type nopRenderer struct{}

func (nopRenderer) Start(int)               {}
func (nopRenderer) Stop(time.Duration) bool { return true }
func (nopRenderer) Running() bool           { return false }
func (nopRenderer) Present(*media.Frame)    {}

type nopCache struct{}

func (nopCache) Start(int)               {}
func (nopCache) Stop(time.Duration) bool { return true }
func (nopCache) Running() bool           { return false }
func (nopCache) SetPosition(int64)       {}
