// ABOUTME: High-level playback synchronization API
// ABOUTME: Coordinator, worker interfaces and the diagnostics sink
// Package playback implements the real-time loop that keeps independently
// running audio and video aligned on a decoded media timeline.
//
// The Coordinator owns playback state (position, speed, the current frame)
// and runs a single timing loop: fetch the frame for this tick, hand it to
// the renderer, sample the audio engine's position, and stretch or skip to
// compensate for drift. Audio, rendering and prefetching run as independent
// workers behind small interfaces so the loop never blocks on them.
//
// Example:
//
//	coord := playback.NewCoordinator(playback.Config{
//	    Source: src,
//	    Audio:  eng,
//	    Video:  rend,
//	    Cache:  cache,
//	})
//	coord.StartPlayback()
//	defer coord.StopPlayback()
//
//	coord.SetSpeed(2)  // fast-forward
//	coord.Seek(240)    // jump to frame 240
package playback
