// ABOUTME: Error values for frame acquisition
// ABOUTME: Defines the soft-failure kinds a FrameSource reports
package media

import "errors"

var (
	// ErrSourceUnavailable reports that the underlying source was released
	// while in use. Recoverable: the caller skips the frame.
	ErrSourceUnavailable = errors.New("media: source unavailable")

	// ErrOutOfRange reports a frame position outside [1, VideoLength].
	// Recoverable: the caller skips the frame.
	ErrOutOfRange = errors.New("media: frame position out of range")
)
