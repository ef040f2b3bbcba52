// ABOUTME: Shared audio sample accounting for frame sources
// ABOUTME: Maps frame positions to per-channel sample windows
package source

import "math"

// sampleWindow returns the half-open window of per-channel sample indexes
// covered by the frame at position, given the average number of sample
// frames per video frame. Rounding the cumulative boundary keeps windows
// gapless even when samplesPerFrame is fractional.
func sampleWindow(position int64, samplesPerFrame float64) (start, count int64) {
	end := int64(math.Round(float64(position) * samplesPerFrame))
	start = int64(math.Round(float64(position-1) * samplesPerFrame))
	return start, end - start
}
