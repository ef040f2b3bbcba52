// ABOUTME: Audio engine execution unit
// ABOUTME: Pulls frame audio from a source and feeds the output device
package engine

import (
	"encoding/binary"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Cadence-Player/cadence-go/pkg/media"
	"github.com/Cadence-Player/cadence-go/pkg/playback"
)

const (
	// DefaultSampleRate is assumed when a source reports no audio format.
	DefaultSampleRate = 44100
	// DefaultChannels is assumed when a source reports no channel count.
	DefaultChannels = 2
)

// Engine consumes a source's audio at its own pace: it pulls frames
// sequentially and writes their samples to a Device, whose blocking Write
// provides real-time pacing. The frame whose samples were written last is
// the engine's reported position.
type Engine struct {
	source media.FrameSource
	device Device

	next    atomic.Int64 // frame to pull next
	heard   atomic.Int64 // frame most recently written
	frames  atomic.Int64
	bytes   atomic.Int64
	running atomic.Bool

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds an Engine reading from source and writing to device. A nil
// device plays silently at the stream's real-time rate.
func New(source media.FrameSource, device Device) *Engine {
	if device == nil {
		device = NewSilentDevice()
	}
	e := &Engine{source: source, device: device}
	e.next.Store(1)
	return e
}

// Start launches the pull loop. Priorities at or above the audio level pin
// the loop to its OS thread to reduce scheduling jitter.
func (e *Engine) Start(priority int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running.Load() {
		return
	}

	info := e.source.Info()
	sampleRate := info.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	channels := info.Channels
	if channels <= 0 {
		channels = DefaultChannels
	}
	if err := e.device.Start(sampleRate, channels); err != nil {
		log.Errorf("audio device start: %v", err)
		return
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.running.Store(true)
	log.Infof("audio engine started: %dHz %dch priority=%d", sampleRate, channels, priority)
	go e.run(priority, e.stopCh, e.doneCh)
}

// Stop signals the loop, closes the device to unblock any in-flight write,
// and waits up to timeout. It reports whether the loop exited in time.
func (e *Engine) Stop(timeout time.Duration) bool {
	e.mu.Lock()
	if e.stopCh != nil {
		close(e.stopCh)
		e.stopCh = nil
	}
	done := e.doneCh
	e.mu.Unlock()

	e.device.Close()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		log.Warnf("audio engine did not stop within %v", timeout)
		return false
	}
}

// Running reports whether the pull loop is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Seek repositions the engine at the given frame. The loop pulls it next.
func (e *Engine) Seek(position int64) {
	e.next.Store(position)
	e.heard.Store(position)
}

// Position returns the frame most recently written to the device, or 0 when
// nothing has played yet.
func (e *Engine) Position() int64 { return e.heard.Load() }

// Stats is a snapshot of engine counters.
type Stats struct {
	Position      int64 `json:"position"`
	FramesWritten int64 `json:"frames_written"`
	BytesWritten  int64 `json:"bytes_written"`
	Running       bool  `json:"running"`
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Position:      e.heard.Load(),
		FramesWritten: e.frames.Load(),
		BytesWritten:  e.bytes.Load(),
		Running:       e.running.Load(),
	}
}

func (e *Engine) run(priority int, stopCh, doneCh chan struct{}) {
	defer func() {
		e.running.Store(false)
		close(doneCh)
	}()

	if priority >= playback.PriorityAudio {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	info := e.source.Info()
	frameDuration := media.FrameDuration(info.FPS)
	if frameDuration <= 0 {
		frameDuration = time.Second / 24
	}

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		pos := e.next.Load()
		if pos < 1 || pos > info.VideoLength {
			// Parked past the stream bounds; wait for a seek.
			if !wait(stopCh, frameDuration) {
				return
			}
			continue
		}

		frame, err := e.source.GetFrame(pos)
		if err != nil {
			if errors.Is(err, media.ErrSourceUnavailable) {
				log.Info("audio engine: source closed")
				return
			}
			if !wait(stopCh, frameDuration) {
				return
			}
			continue
		}

		if frame.HasSamples() {
			pcm := pcmBytes(frame.Samples)
			if err := e.device.Write(pcm); err != nil {
				select {
				case <-stopCh:
					return
				default:
				}
				log.Warnf("audio device write: %v", err)
				if !wait(stopCh, frameDuration) {
					return
				}
			} else {
				e.frames.Add(1)
				e.bytes.Add(int64(len(pcm)))
			}
		} else {
			// No samples in this frame; hold the real-time pace anyway.
			if !wait(stopCh, frameDuration) {
				return
			}
		}

		e.heard.Store(pos)
		e.next.CompareAndSwap(pos, pos+1)
	}
}

// wait sleeps for d unless stop closes first, reporting whether the full
// duration elapsed.
func wait(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

// pcmBytes converts interleaved samples to little-endian bytes.
func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
