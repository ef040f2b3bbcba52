// ABOUTME: Tests for core media types
// ABOUTME: Tests fraction math, frame helpers and error identity
package media

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFractionToFloat(t *testing.T) {
	tests := []struct {
		num, den int
		expected float64
	}{
		{24, 1, 24.0},
		{30000, 1001, 29.97002997002997},
		{25, 1, 25.0},
		{0, 1, 0.0},
		{24, 0, 0.0}, // zero denominator guarded
	}

	for _, tt := range tests {
		f := Fraction{Num: tt.num, Den: tt.den}
		if got := f.ToFloat(); got != tt.expected {
			t.Errorf("Fraction{%d,%d}.ToFloat() = %v, expected %v",
				tt.num, tt.den, got, tt.expected)
		}
	}
}

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		name     string
		fps      Fraction
		expected time.Duration
	}{
		{"24fps", Fraction{24, 1}, time.Second / 24},
		{"25fps", Fraction{25, 1}, 40 * time.Millisecond},
		{"ntsc", Fraction{30000, 1001}, time.Duration(float64(time.Second) / (30000.0 / 1001.0))},
		{"invalid", Fraction{0, 1}, 0},
		{"zero denominator", Fraction{24, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameDuration(tt.fps); got != tt.expected {
				t.Errorf("FrameDuration(%s) = %v, expected %v", tt.fps, got, tt.expected)
			}
		})
	}
}

func TestFractionString(t *testing.T) {
	f := Fraction{Num: 30000, Den: 1001}
	if f.String() != "30000/1001" {
		t.Errorf("expected 30000/1001, got %s", f.String())
	}
}

func TestFrameHelpers(t *testing.T) {
	var nilFrame *Frame
	if nilFrame.HasImage() || nilFrame.HasSamples() {
		t.Error("nil frame should report no image and no samples")
	}

	empty := &Frame{Number: 1}
	if empty.HasImage() || empty.HasSamples() {
		t.Error("empty frame should report no image and no samples")
	}

	full := &Frame{
		Number:  2,
		Pixels:  make([]byte, 16),
		Width:   2,
		Height:  2,
		Samples: make([]int16, 4),
	}
	if !full.HasImage() {
		t.Error("expected HasImage for frame with pixels")
	}
	if !full.HasSamples() {
		t.Error("expected HasSamples for frame with samples")
	}
}

func TestErrorIdentity(t *testing.T) {
	wrapped := fmt.Errorf("fetch frame 12: %w", ErrOutOfRange)
	if !errors.Is(wrapped, ErrOutOfRange) {
		t.Error("wrapped ErrOutOfRange should match errors.Is")
	}
	if errors.Is(wrapped, ErrSourceUnavailable) {
		t.Error("ErrOutOfRange should not match ErrSourceUnavailable")
	}
}
