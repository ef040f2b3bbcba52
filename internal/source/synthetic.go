// ABOUTME: Procedural frame source for demos and tests
// ABOUTME: Generates a scrolling gradient pattern and a sine tone
package source

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

// SyntheticConfig shapes the generated stream. Zero values pick defaults:
// 24fps, 240 frames, 320x180 video and a 440Hz stereo tone at 44.1kHz.
type SyntheticConfig struct {
	FPS        media.Fraction
	Length     int64
	Width      int
	Height     int
	SampleRate int
	Channels   int
	ToneHz     float64
	NoAudio    bool
	NoVideo    bool
}

// Synthetic generates frames procedurally. Every frame is a pure function
// of its position, so concurrent readers need no locking and playback is
// reproducible.
type Synthetic struct {
	info   media.StreamInfo
	toneHz float64
	spf    float64 // audio sample frames per video frame
	closed atomic.Bool
}

// NewSynthetic builds a generator for cfg.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.FPS.ToFloat() <= 0 {
		cfg.FPS = media.Fraction{Num: 24, Den: 1}
	}
	if cfg.Length <= 0 {
		cfg.Length = 240
	}
	if cfg.Width <= 0 {
		cfg.Width = 320
	}
	if cfg.Height <= 0 {
		cfg.Height = 180
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.ToneHz <= 0 {
		cfg.ToneHz = 440.0
	}

	info := media.StreamInfo{
		HasAudio:    !cfg.NoAudio,
		HasVideo:    !cfg.NoVideo,
		FPS:         cfg.FPS,
		VideoLength: cfg.Length,
		SampleRate:  cfg.SampleRate,
		Channels:    cfg.Channels,
	}
	if info.HasVideo {
		info.Width = cfg.Width
		info.Height = cfg.Height
	}
	return &Synthetic{
		info:   info,
		toneHz: cfg.ToneHz,
		spf:    float64(cfg.SampleRate) / cfg.FPS.ToFloat(),
	}
}

// Info returns the stream metadata.
func (s *Synthetic) Info() media.StreamInfo { return s.info }

// GetFrame generates the frame at position.
func (s *Synthetic) GetFrame(position int64) (*media.Frame, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("frame %d: %w", position, media.ErrSourceUnavailable)
	}
	if position < 1 || position > s.info.VideoLength {
		return nil, fmt.Errorf("frame %d: %w", position, media.ErrOutOfRange)
	}

	frame := &media.Frame{Number: position}
	if s.info.HasVideo {
		frame.Width = s.info.Width
		frame.Height = s.info.Height
		frame.Pixels = s.pattern(position)
	}
	if s.info.HasAudio {
		frame.Samples = s.tone(position)
	}
	return frame, nil
}

// Close marks the source unavailable.
func (s *Synthetic) Close() error {
	s.closed.Store(true)
	return nil
}

// pattern draws a diagonal gradient that scrolls with the position, plus a
// white column marking playback progress.
func (s *Synthetic) pattern(position int64) []byte {
	w, h := s.info.Width, s.info.Height
	px := make([]byte, w*h*4)
	marker := int(position * int64(w) / s.info.VideoLength)
	if marker >= w {
		marker = w - 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if x == marker {
				px[i], px[i+1], px[i+2], px[i+3] = 0xFF, 0xFF, 0xFF, 0xFF
				continue
			}
			px[i] = uint8(x * 255 / w)
			px[i+1] = uint8(y * 255 / h)
			px[i+2] = uint8((int(position)*3 + x + y) & 0xFF)
			px[i+3] = 0xFF
		}
	}
	return px
}

// tone generates this frame's slice of a continuous sine wave. Phase is
// derived from the absolute sample index, so consecutive frames join
// without clicks.
func (s *Synthetic) tone(position int64) []int16 {
	start, count := sampleWindow(position, s.spf)
	channels := s.info.Channels
	out := make([]int16, count*int64(channels))

	for i := int64(0); i < count; i++ {
		t := float64(start+i) / float64(s.info.SampleRate)
		sample := math.Sin(2 * math.Pi * s.toneHz * t)
		pcm := int16(sample * 32767.0 * 0.5)
		for c := 0; c < channels; c++ {
			out[i*int64(channels)+int64(c)] = pcm
		}
	}
	return out
}
