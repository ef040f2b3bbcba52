// ABOUTME: Version and product identity constants
// ABOUTME: Reported in startup logging and the diagnostics API
package version

const (
	// Product is the player's product name.
	Product = "Cadence Player"

	// Manufacturer identifies the project publishing this build.
	Manufacturer = "Cadence"

	// Version is the software version.
	Version = "0.1.0"
)
