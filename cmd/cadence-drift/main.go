// ABOUTME: Exerciser that injects audio clock skew into a playback session
// ABOUTME: Prints per-tick drift corrections for eyeballing loop behavior
package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/Cadence-Player/cadence-go/internal/engine"
	"github.com/Cadence-Player/cadence-go/internal/source"
	"github.com/Cadence-Player/cadence-go/pkg/media"
	"github.com/Cadence-Player/cadence-go/pkg/playback"
)

var (
	fps     = pflag.Int("fps", 25, "frame rate of the generated stream")
	seconds = pflag.Int("seconds", 20, "stream length in seconds")
	skew    = pflag.Int64("skew", -15, "frames added to every reported audio position")
	speed   = pflag.Int64("speed", 1, "playback speed")
)

func main() {
	pflag.Parse()

	fmt.Println("=== Drift Correction Exerciser ===")
	fmt.Printf("Stream: %d fps for %ds. Audio positions skewed by %+d frames.\n",
		*fps, *seconds, *skew)
	fmt.Println("Positive diff stretches sleeps; diff below -10 skips video ahead.")
	fmt.Println()

	src := source.NewSynthetic(source.SyntheticConfig{
		FPS:    media.Fraction{Num: *fps, Den: 1},
		Length: int64(*seconds) * int64(*fps),
	})

	eng := engine.New(src, engine.NewSilentDevice())

	var stretches, skips atomic.Int64

	sink := playback.SinkFunc(func(tick playback.Tick) {
		switch {
		case tick.FrameDiff > 0:
			stretches.Add(1)
		case tick.FrameDiff < -10:
			skips.Add(1)
		}
		fmt.Printf("video=%-5d audio=%-5d diff=%-4d render=%-10s sleep=%s\n",
			tick.VideoPosition, tick.AudioPosition, tick.FrameDiff,
			tick.RenderTime, tick.SleepTime)
	})

	coord := playback.NewCoordinator(playback.Config{
		Source: src,
		Audio:  &skewedEngine{Engine: eng, skew: *skew},
		Sink:   sink,
	})
	coord.SetSpeed(*speed)

	if !coord.StartPlayback() {
		fmt.Println("playback refused to start")
		return
	}

	time.Sleep(time.Duration(*seconds) * time.Second)

	coord.StopPlayback()
	_ = src.Close()

	fmt.Println()
	fmt.Printf("Ticks with stretched sleeps: %d\n", stretches.Load())
	fmt.Printf("Ticks that skipped video ahead: %d\n", skips.Load())
}

// skewedEngine reports audio positions offset by a fixed number of frames,
// standing in for an output device whose clock runs fast or slow.
type skewedEngine struct {
	*engine.Engine
	skew int64
}

func (s *skewedEngine) Position() int64 {
	pos := s.Engine.Position()
	if pos == 0 {
		return 0
	}
	return pos + s.skew
}
