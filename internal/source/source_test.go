// ABOUTME: Tests for frame sources
// ABOUTME: Covers sample windows, synthetic determinism and mp3 slicing
package source

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

func TestSampleWindowIsGapless(t *testing.T) {
	// 44100Hz at 24fps gives a fractional 1837.5 samples per frame.
	const spf = 44100.0 / 24.0

	var total int64
	prev := int64(0)
	for pos := int64(1); pos <= 100; pos++ {
		start, count := sampleWindow(pos, spf)
		if start != prev {
			t.Fatalf("frame %d starts at %d, expected %d (gap or overlap)", pos, start, prev)
		}
		if count != 1837 && count != 1838 {
			t.Fatalf("frame %d has %d samples, expected 1837 or 1838", pos, count)
		}
		prev = start + count
		total += count
	}

	if expected := int64(math.Round(100 * spf)); total != expected {
		t.Errorf("100 frames cover %d samples, expected %d", total, expected)
	}
}

func TestSyntheticDefaults(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{})
	info := s.Info()

	if !info.HasAudio || !info.HasVideo {
		t.Error("default synthetic stream should carry audio and video")
	}
	if info.FPS.ToFloat() != 24 {
		t.Errorf("fps = %v, expected 24", info.FPS)
	}
	if info.VideoLength != 240 {
		t.Errorf("length = %d, expected 240", info.VideoLength)
	}
}

func TestSyntheticIsDeterministic(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{})

	a, err := s.GetFrame(42)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	b, err := s.GetFrame(42)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}

	if !bytes.Equal(a.Pixels, b.Pixels) {
		t.Error("same position produced different pixels")
	}
	if len(a.Samples) != len(b.Samples) {
		t.Fatal("same position produced different sample counts")
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatal("same position produced different samples")
		}
	}

	c, err := s.GetFrame(43)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if bytes.Equal(a.Pixels, c.Pixels) {
		t.Error("adjacent positions produced identical pixels")
	}
}

func TestSyntheticToneIsPhaseContinuous(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Channels: 1})
	info := s.Info()

	var joined []int16
	for pos := int64(1); pos <= 3; pos++ {
		frame, err := s.GetFrame(pos)
		if err != nil {
			t.Fatalf("GetFrame(%d): %v", pos, err)
		}
		joined = append(joined, frame.Samples...)
	}

	// Evaluated with the frequency in a variable so the expression rounds
	// the same way the generator does.
	freq := 440.0
	for i, got := range joined {
		ts := float64(i) / float64(info.SampleRate)
		expected := int16(math.Sin(2*math.Pi*freq*ts) * 32767.0 * 0.5)
		if got != expected {
			t.Fatalf("sample %d = %d, expected %d (phase discontinuity)", i, got, expected)
		}
	}
}

func TestSyntheticBounds(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Length: 10})

	if _, err := s.GetFrame(0); !errors.Is(err, media.ErrOutOfRange) {
		t.Errorf("GetFrame(0) err = %v, expected ErrOutOfRange", err)
	}
	if _, err := s.GetFrame(11); !errors.Is(err, media.ErrOutOfRange) {
		t.Errorf("GetFrame(11) err = %v, expected ErrOutOfRange", err)
	}

	s.Close()
	if _, err := s.GetFrame(5); !errors.Is(err, media.ErrSourceUnavailable) {
		t.Errorf("after Close err = %v, expected ErrSourceUnavailable", err)
	}
}

func TestSyntheticAudioOnly(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{NoVideo: true})
	info := s.Info()

	if info.HasVideo || !info.HasAudio {
		t.Fatal("expected an audio-only stream")
	}

	frame, err := s.GetFrame(1)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if frame.HasImage() {
		t.Error("audio-only frame should carry no pixels")
	}
	if !frame.HasSamples() {
		t.Error("audio-only frame should carry samples")
	}
}

func TestMP3RejectsGarbage(t *testing.T) {
	if _, err := NewMP3(bytes.NewReader([]byte("definitely not an mp3 stream"))); err == nil {
		t.Error("expected an error for a non-mp3 stream")
	}
}

func TestMP3FrameSlicing(t *testing.T) {
	// 95 stereo sample frames at 10 per video frame: nine full frames and
	// a final partial one.
	m := &MP3{
		info: media.StreamInfo{
			HasAudio:    true,
			FPS:         media.Fraction{Num: 10, Den: 1},
			VideoLength: 10,
			SampleRate:  100,
			Channels:    2,
		},
		pcm: make([]int16, 95*2),
		spf: 10,
	}

	first, err := m.GetFrame(1)
	if err != nil {
		t.Fatalf("GetFrame(1): %v", err)
	}
	if got := len(first.Samples); got != 20 {
		t.Errorf("frame 1 has %d interleaved samples, expected 20", got)
	}

	last, err := m.GetFrame(10)
	if err != nil {
		t.Fatalf("GetFrame(10): %v", err)
	}
	if got := len(last.Samples); got != 10 {
		t.Errorf("final partial frame has %d interleaved samples, expected 10", got)
	}

	if _, err := m.GetFrame(11); !errors.Is(err, media.ErrOutOfRange) {
		t.Errorf("GetFrame(11) err = %v, expected ErrOutOfRange", err)
	}

	m.Close()
	if _, err := m.GetFrame(1); !errors.Is(err, media.ErrSourceUnavailable) {
		t.Errorf("after Close err = %v, expected ErrSourceUnavailable", err)
	}
}
