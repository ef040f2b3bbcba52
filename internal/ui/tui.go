// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// SpeedMsg asks the application to set a new playback speed.
type SpeedMsg struct {
	Speed int64
}

// SeekMsg asks the application to move the playhead. Frames is a relative
// jump unless Absolute is set.
type SeekMsg struct {
	Frames   int64
	Absolute bool
}

// QuitMsg asks the application to shut down.
type QuitMsg struct{}

// Controls holds channels for transport commands sent by the TUI
type Controls struct {
	Speeds chan SpeedMsg
	Seeks  chan SeekMsg
	Quit   chan QuitMsg
}

// NewControls creates a new transport control handler
func NewControls() *Controls {
	return &Controls{
		Speeds: make(chan SpeedMsg, 10),
		Seeks:  make(chan SeekMsg, 10),
		Quit:   make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls) Model {
	return Model{
		controls: ctrl,
		source:   "(none)",
		speed:    1,
	}
}

// Run starts the TUI
func Run(ctrl *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
