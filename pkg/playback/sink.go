// ABOUTME: Diagnostics sink for per-iteration loop telemetry
// ABOUTME: Tick records carry positions, drift and timing for one iteration
package playback

import "time"

// Tick is one loop iteration's telemetry, captured after drift compensation.
// SleepTime is the computed wait for the iteration; the loop skips the actual
// sleep when it falls outside (0, MaxSleep).
type Tick struct {
	Session       string        `json:"session"`
	VideoPosition int64         `json:"video_position"`
	AudioPosition int64         `json:"audio_position"`
	FrameDiff     int64         `json:"frame_diff"`
	Speed         int64         `json:"speed"`
	RenderTime    time.Duration `json:"render_time"`
	SleepTime     time.Duration `json:"sleep_time"`
}

// Sink receives a Tick for every timed loop iteration, including ones whose
// frame fetch failed. Implementations must not block; the loop calls Record
// on its hot path.
type Sink interface {
	Record(tick Tick)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Tick)

// Record calls f(tick).
func (f SinkFunc) Record(tick Tick) { f(tick) }

// NopSink discards all ticks.
type NopSink struct{}

// Record does nothing.
func (NopSink) Record(Tick) {}
