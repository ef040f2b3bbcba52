// ABOUTME: Media fundamentals package providing core types
// ABOUTME: Defines Frame, Fraction, StreamInfo and the FrameSource interface
// Package media provides the fundamental types of a decoded media timeline.
//
// This package defines the types shared by every component of the cadence
// library:
//   - Frame: a single timeline unit (image pixels and/or PCM samples)
//     addressed by an integer position
//   - Fraction: a rational frame rate
//   - StreamInfo: immutable stream metadata snapshot
//   - FrameSource: the interface a decoded media provider implements
//
// Frame positions are 1-based: the first displayable frame of a stream is
// frame 1, the last is StreamInfo.VideoLength.
//
// Example:
//
//	info := src.Info()
//	frame, err := src.GetFrame(1)
//	if errors.Is(err, media.ErrOutOfRange) {
//	    // position outside [1, info.VideoLength]
//	}
package media
