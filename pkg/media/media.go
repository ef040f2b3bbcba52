// ABOUTME: Core media type definitions
// ABOUTME: Defines frames, rational frame rates and stream metadata
package media

import (
	"fmt"
	"time"
)

// Fraction is a rational number, used for frame rates (e.g. 30000/1001).
type Fraction struct {
	Num int
	Den int
}

// ToFloat returns the fraction as a float64. A zero denominator yields 0.
func (f Fraction) ToFloat() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// String formats the fraction as "num/den".
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// FrameDuration returns the on-screen time budget of one frame at the given
// frame rate, or 0 if the rate is not positive.
func FrameDuration(fps Fraction) time.Duration {
	rate := fps.ToFloat()
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}

// StreamInfo describes a media stream. It is fixed for the lifetime of a
// source and safe to copy.
type StreamInfo struct {
	HasAudio    bool
	HasVideo    bool
	FPS         Fraction // frames per second
	VideoLength int64    // total frame count
	Width       int      // pixels per row
	Height      int      // rows per frame
	SampleRate  int      // audio samples per second per channel
	Channels    int      // interleaved audio channels
}

// Frame is a single decodable unit of the timeline, addressed by a 1-based
// integer position. Frames are shared by reference across goroutines and
// must not be modified after creation.
type Frame struct {
	// Number is the frame's position in the timeline.
	Number int64

	// Pixels holds RGBA image data (4 bytes per pixel, row-major), or nil
	// for audio-only streams.
	Pixels []byte

	// Width and Height describe the Pixels layout.
	Width  int
	Height int

	// Samples holds interleaved 16-bit PCM for this frame's duration, or
	// nil for video-only streams.
	Samples []int16
}

// HasImage reports whether the frame carries pixel data.
func (f *Frame) HasImage() bool {
	return f != nil && len(f.Pixels) > 0
}

// HasSamples reports whether the frame carries audio data.
func (f *Frame) HasSamples() bool {
	return f != nil && len(f.Samples) > 0
}

// FrameSource supplies decoded frames by position.
//
// GetFrame returns ErrOutOfRange when position is outside
// [1, Info().VideoLength] and ErrSourceUnavailable once the source has been
// closed. Implementations must be safe for concurrent use: the playback
// loop, the audio engine and the cache prefetcher all pull frames.
type FrameSource interface {
	// Info returns the stream metadata snapshot.
	Info() StreamInfo

	// GetFrame returns the frame at the given 1-based position.
	GetFrame(position int64) (*Frame, error)

	// Close releases the source. Subsequent GetFrame calls fail with
	// ErrSourceUnavailable.
	Close() error
}
