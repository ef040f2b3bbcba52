// ABOUTME: Audio output device abstractions
// ABOUTME: Oto-backed hardware output plus a silent wall-clock paced fallback
package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Device is a sink for interleaved 16-bit little-endian PCM. Write blocks
// until the device accepts the buffer, which is what paces the Engine at
// the stream's real-time rate.
type Device interface {
	// Start prepares the device for the given format.
	Start(sampleRate, channels int) error

	// Write outputs one buffer, blocking until it is consumed.
	Write(pcm []byte) error

	// Close releases the device and unblocks any in-flight Write.
	Close() error
}

// OtoDevice plays PCM through the system's audio output using oto. A
// persistent player drains an io.Pipe, so Write blocks at the rate the
// hardware consumes samples.
type OtoDevice struct {
	mu         sync.Mutex
	ctx        *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
}

// NewOtoDevice returns an unstarted hardware output.
func NewOtoDevice() *OtoDevice {
	return &OtoDevice{}
}

// Start initializes the oto context and the streaming pipe. oto allows only
// one context per process, so a format change after the first Start keeps
// the original format.
func (d *OtoDevice) Start(sampleRate, channels int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("create oto context: %w", err)
		}
		<-ready
		d.ctx = ctx
		d.sampleRate = sampleRate
		d.channels = channels
	} else {
		if err := d.ctx.Resume(); err != nil {
			return fmt.Errorf("resume oto context: %w", err)
		}
	}

	if d.player == nil {
		d.pipeReader, d.pipeWriter = io.Pipe()
		d.player = d.ctx.NewPlayer(d.pipeReader)
		d.player.Play()
	}
	return nil
}

// Write feeds PCM into the pipe, blocking until the player drains it.
func (d *OtoDevice) Write(pcm []byte) error {
	d.mu.Lock()
	pw := d.pipeWriter
	d.mu.Unlock()
	if pw == nil {
		return fmt.Errorf("device not started")
	}
	if _, err := pw.Write(pcm); err != nil {
		return fmt.Errorf("pipe write: %w", err)
	}
	return nil
}

// Close tears down the pipe and player and suspends the context. The device
// can be started again afterwards.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pipeWriter != nil {
		d.pipeWriter.Close()
		d.pipeWriter = nil
	}
	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
	if d.pipeReader != nil {
		d.pipeReader.Close()
		d.pipeReader = nil
	}
	if d.ctx != nil {
		d.ctx.Suspend()
	}
	return nil
}

// SilentDevice discards PCM while consuming it at the stream's real-time
// rate, for headless runs and machines without audio hardware.
type SilentDevice struct {
	mu             sync.Mutex
	bytesPerSecond int
	closed         chan struct{}
}

// NewSilentDevice returns a silent output.
func NewSilentDevice() *SilentDevice {
	return &SilentDevice{}
}

// Start records the format so Write can pace itself.
func (d *SilentDevice) Start(sampleRate, channels int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bytesPerSecond = sampleRate * channels * 2
	d.closed = make(chan struct{})
	return nil
}

// Write sleeps for the buffer's play time, or returns early when closed.
func (d *SilentDevice) Write(pcm []byte) error {
	d.mu.Lock()
	bps := d.bytesPerSecond
	closed := d.closed
	d.mu.Unlock()
	if bps <= 0 {
		return fmt.Errorf("device not started")
	}

	wait := time.Duration(float64(len(pcm)) / float64(bps) * float64(time.Second))
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-closed:
		return fmt.Errorf("device closed")
	}
}

// Close unblocks any in-flight Write.
func (d *SilentDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed != nil {
		select {
		case <-d.closed:
		default:
			close(d.closed)
		}
	}
	d.bytesPerSecond = 0
	return nil
}
