// ABOUTME: MP3 frame source backed by go-mp3
// ABOUTME: Decodes the whole stream up front and slices it per frame
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

// mp3FPS is the frame rate synthesized for audio-only streams, which carry
// no natural frame boundaries of their own.
var mp3FPS = media.Fraction{Num: 24, Den: 1}

// MP3 serves an MP3 file as a sequence of audio frames. The stream is
// decoded into memory on open; GetFrame returns zero-copy slices of the
// decoded PCM.
type MP3 struct {
	info   media.StreamInfo
	pcm    []int16 // interleaved stereo
	spf    float64
	closed atomic.Bool
}

// OpenMP3 decodes the MP3 file at path.
func OpenMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := NewMP3(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

// NewMP3 decodes an MP3 stream from r. go-mp3 always produces 16-bit
// stereo output at the stream's sample rate.
func NewMP3(r io.Reader) (*MP3, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("create mp3 decoder: %w", err)
	}

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	pcm := make([]int16, len(data)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	const channels = 2
	rate := dec.SampleRate()
	spf := float64(rate) / mp3FPS.ToFloat()
	sampleFrames := len(pcm) / channels
	length := int64(math.Ceil(float64(sampleFrames) / spf))
	if length < 1 {
		return nil, fmt.Errorf("mp3 stream is empty")
	}

	return &MP3{
		info: media.StreamInfo{
			HasAudio:    true,
			FPS:         mp3FPS,
			VideoLength: length,
			SampleRate:  rate,
			Channels:    channels,
		},
		pcm: pcm,
		spf: spf,
	}, nil
}

// Info returns the stream metadata.
func (m *MP3) Info() media.StreamInfo { return m.info }

// GetFrame returns the PCM window for the frame at position. The final
// frame may carry fewer samples than the rest.
func (m *MP3) GetFrame(position int64) (*media.Frame, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("frame %d: %w", position, media.ErrSourceUnavailable)
	}
	if position < 1 || position > m.info.VideoLength {
		return nil, fmt.Errorf("frame %d: %w", position, media.ErrOutOfRange)
	}

	start, count := sampleWindow(position, m.spf)
	channels := int64(m.info.Channels)
	lo := start * channels
	hi := (start + count) * channels
	if lo > int64(len(m.pcm)) {
		lo = int64(len(m.pcm))
	}
	if hi > int64(len(m.pcm)) {
		hi = int64(len(m.pcm))
	}

	return &media.Frame{Number: position, Samples: m.pcm[lo:hi]}, nil
}

// Close marks the source unavailable. The decoded PCM is released once all
// outstanding frames are gone.
func (m *MP3) Close() error {
	m.closed.Store(true)
	return nil
}
