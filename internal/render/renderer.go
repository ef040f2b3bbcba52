// ABOUTME: Video renderer execution unit
// ABOUTME: Single-slot frame mailbox drained by a display loop
package render

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

// Display is where frames end up on screen.
type Display interface {
	Show(frame *media.Frame) error
}

// DisplayFunc adapts a function to the Display interface.
type DisplayFunc func(*media.Frame) error

// Show calls f(frame).
func (f DisplayFunc) Show(frame *media.Frame) error { return f(frame) }

// Discard is a Display that drops every frame.
var Discard Display = DisplayFunc(func(*media.Frame) error { return nil })

// Renderer decouples the playback loop from display latency with a
// single-slot mailbox: Present never blocks and always overwrites, so the
// loop stays on schedule and the display always shows the newest frame.
// Frames overwritten before the display drained them are dropped, never
// queued.
type Renderer struct {
	display Display

	slotMu sync.Mutex
	slot   *media.Frame
	wake   chan struct{}

	presented atomic.Int64
	dropped   atomic.Int64
	running   atomic.Bool

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Renderer drawing onto display. A nil display discards frames.
func New(display Display) *Renderer {
	if display == nil {
		display = Discard
	}
	return &Renderer{
		display: display,
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the display loop.
func (r *Renderer) Start(priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running.Load() {
		return
	}
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.running.Store(true)
	log.Debugf("renderer started: priority=%d", priority)
	go r.run(r.stopCh, r.doneCh)
}

// Stop signals the display loop and waits up to timeout for it to exit.
func (r *Renderer) Stop(timeout time.Duration) bool {
	r.mu.Lock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
	done := r.doneCh
	r.mu.Unlock()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		log.Warnf("renderer did not stop within %v", timeout)
		return false
	}
}

// Running reports whether the display loop is active.
func (r *Renderer) Running() bool { return r.running.Load() }

// Present puts frame in the mailbox, replacing whatever is there. It never
// blocks; nil frames are ignored.
func (r *Renderer) Present(frame *media.Frame) {
	if frame == nil {
		return
	}
	r.slotMu.Lock()
	if r.slot != nil {
		r.dropped.Add(1)
	}
	r.slot = frame
	r.slotMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Stats is a snapshot of renderer counters.
type Stats struct {
	Presented int64 `json:"presented"`
	Dropped   int64 `json:"dropped"`
	Running   bool  `json:"running"`
}

// Stats returns a snapshot of renderer counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Presented: r.presented.Load(),
		Dropped:   r.dropped.Load(),
		Running:   r.running.Load(),
	}
}

func (r *Renderer) run(stopCh, doneCh chan struct{}) {
	defer func() {
		r.running.Store(false)
		close(doneCh)
	}()

	for {
		select {
		case <-stopCh:
			return
		case <-r.wake:
		}

		r.slotMu.Lock()
		frame := r.slot
		r.slot = nil
		r.slotMu.Unlock()
		if frame == nil {
			continue
		}

		if err := r.display.Show(frame); err != nil {
			log.Warnf("display frame %d: %v", frame.Number, err)
			continue
		}
		r.presented.Add(1)
	}
}
