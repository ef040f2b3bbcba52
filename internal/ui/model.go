// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Cadence-Player/cadence-go/pkg/media"
)

const (
	// seekStep is the jump applied by the arrow keys, in frames.
	seekStep = 24

	// maxShuttle bounds the speed reachable from the keyboard.
	maxShuttle = 4

	// innerWidth is the usable character width inside the box border.
	innerWidth = 52

	// previewRows is the height of the ASCII frame preview.
	previewRows = 8
)

// Model represents the TUI state
type Model struct {
	controls *Controls

	// Source
	session string
	source  string
	fps     string

	// Stream
	frameWidth  int
	frameHeight int
	length      int64
	hasAudio    bool
	hasVideo    bool
	sampleRate  int
	channels    int

	// Transport
	running  bool
	speed    int64
	videoPos int64
	audioPos int64
	diff     int64

	// Timing
	renderTime time.Duration
	sleepTime  time.Duration

	// Stats
	presented   int64
	dropped     int64
	cacheHits   int64
	cacheMisses int64
	prefetched  int64
	audioFrames int64
	audioBytes  int64

	// Preview
	preview *media.Frame

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case FrameMsg:
		if msg.Frame != nil {
			m.preview = msg.Frame
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTransport()

	if m.hasVideo {
		s += m.renderPreview()
	}

	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the source and transport state
func (m Model) renderHeader() string {
	state := "Stopped"
	switch {
	case !m.running:
		state = "Stopped"
	case m.speed == 0:
		state = "Paused"
	case m.speed == 1:
		state = "Playing"
	default:
		state = fmt.Sprintf("Shuttle %+dx", m.speed)
	}

	format := "(no stream)"
	if m.fps != "" {
		format = fmt.Sprintf("%s fps", m.fps)
		if m.hasVideo {
			format += fmt.Sprintf(" %dx%d", m.frameWidth, m.frameHeight)
		}
		if m.hasAudio {
			format += fmt.Sprintf(" %dHz %s", m.sampleRate, channelName(m.channels))
		}
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	s := titleStyle.Render("┌─ Cadence Player ─────────────────────────────────────┐") + "\n"
	s += boxLine(fmt.Sprintf("Source: %s", truncate(m.source, innerWidth-8)))
	s += boxLine(fmt.Sprintf("State:  %-12s %s", state, format))
	s += "├──────────────────────────────────────────────────────┤\n"

	return s
}

// renderTransport renders the timeline bar and playhead positions
func (m Model) renderTransport() string {
	bar := renderBar(int(m.videoPos), int(m.length), 30)

	s := boxLine(fmt.Sprintf("Timeline: [%s] %d/%d", bar, m.videoPos, m.length))
	s += boxLine(fmt.Sprintf("Video: %-8d Audio: %-8d Drift: %+d", m.videoPos, m.audioPos, m.diff))

	return s
}

// renderPreview renders an ASCII rendition of the latest frame
func (m Model) renderPreview() string {
	s := "├──────────────────────────────────────────────────────┤\n"

	if !m.preview.HasImage() {
		s += boxLine("(no frame yet)")
		return s
	}

	for _, row := range asciiFrame(m.preview, innerWidth, previewRows) {
		s += boxLine(row)
	}

	return s
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	s := "├──────────────────────────────────────────────────────┤\n"
	s += boxLine(fmt.Sprintf("Frames: shown %d  dropped %d", m.presented, m.dropped))
	s += boxLine(fmt.Sprintf("Cache:  hit %d  miss %d  prefetched %d", m.cacheHits, m.cacheMisses, m.prefetched))

	return s
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	s := boxLine("DEBUG:")
	s += boxLine(fmt.Sprintf("  render %s  sleep %s", m.renderTime, m.sleepTime))
	s += boxLine(fmt.Sprintf("  audio %d frames  %d bytes", m.audioFrames, m.audioBytes))
	s += boxLine(fmt.Sprintf("  session %s", truncate(m.session, innerWidth-10)))

	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().Faint(true)

	s := "├──────────────────────────────────────────────────────┤\n"
	s += helpStyle.Render(strings.TrimSuffix(boxLine("space:Pause  ←/→:Seek  ↑/↓:Speed  1:Normal"), "\n")) + "\n"
	s += helpStyle.Render(strings.TrimSuffix(boxLine("r:Restart  d:Debug  q:Quit"), "\n")) + "\n"
	s += "└──────────────────────────────────────────────────────┘\n"

	return s
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.sendQuit()
		return m, tea.Quit
	case " ":
		if m.speed == 0 {
			m.speed = 1
		} else {
			m.speed = 0
		}
		m.sendSpeed(m.speed)
	case "up":
		if m.speed < maxShuttle {
			m.speed++
			m.sendSpeed(m.speed)
		}
	case "down":
		if m.speed > -maxShuttle {
			m.speed--
			m.sendSpeed(m.speed)
		}
	case "1":
		m.speed = 1
		m.sendSpeed(1)
	case "left":
		m.sendSeek(SeekMsg{Frames: -seekStep})
	case "right":
		m.sendSeek(SeekMsg{Frames: seekStep})
	case "r":
		m.sendSeek(SeekMsg{Frames: 1, Absolute: true})
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Running != nil {
		m.running = *msg.Running
	}
	if msg.Session != "" {
		m.session = msg.Session
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.FPS != "" {
		m.fps = msg.FPS
		m.frameWidth = msg.FrameWidth
		m.frameHeight = msg.FrameHeight
		m.length = msg.Length
		m.hasAudio = msg.HasAudio
		m.hasVideo = msg.HasVideo
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
	}
	if msg.VideoPosition != 0 {
		m.videoPos = msg.VideoPosition
		m.audioPos = msg.AudioPosition
		m.diff = msg.FrameDiff
		m.speed = msg.Speed
		m.renderTime = msg.RenderTime
		m.sleepTime = msg.SleepTime
	}
	if msg.Presented != 0 || msg.CacheMisses != 0 {
		m.presented = msg.Presented
		m.dropped = msg.Dropped
		m.cacheHits = msg.CacheHits
		m.cacheMisses = msg.CacheMisses
		m.prefetched = msg.Prefetched
		m.audioFrames = msg.AudioFrames
		m.audioBytes = msg.AudioBytes
	}
}

func (m Model) sendSpeed(speed int64) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Speeds <- SpeedMsg{Speed: speed}:
	default:
	}
}

func (m Model) sendSeek(msg SeekMsg) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Seeks <- msg:
	default:
	}
}

func (m Model) sendQuit() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Quit <- QuitMsg{}:
	default:
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Running       *bool
	Session       string
	Source        string
	FPS           string
	FrameWidth    int
	FrameHeight   int
	Length        int64
	HasAudio      bool
	HasVideo      bool
	SampleRate    int
	Channels      int
	VideoPosition int64
	AudioPosition int64
	FrameDiff     int64
	Speed         int64
	RenderTime    time.Duration
	SleepTime     time.Duration
	Presented     int64
	Dropped       int64
	CacheHits     int64
	CacheMisses   int64
	Prefetched    int64
	AudioFrames   int64
	AudioBytes    int64
}

// FrameMsg carries the latest presented frame for the preview pane
type FrameMsg struct {
	Frame *media.Frame
}

// Utility functions
func boxLine(content string) string {
	n := utf8.RuneCountInString(content)
	if n > innerWidth {
		content = truncate(content, innerWidth)
		n = utf8.RuneCountInString(content)
	}
	return "│ " + content + strings.Repeat(" ", innerWidth-n) + " │\n"
}

func renderBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}

	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

// asciiFrame downsamples frame pixels into rows of luminance characters.
func asciiFrame(f *media.Frame, cols, rows int) []string {
	ramp := []byte(" .:-=+*#%@")

	if f.Width <= 0 || f.Height <= 0 {
		return nil
	}

	out := make([]string, 0, rows)
	for y := 0; y < rows; y++ {
		sy := y * f.Height / rows
		line := make([]byte, cols)
		for x := 0; x < cols; x++ {
			sx := x * f.Width / cols
			o := (sy*f.Width + sx) * 4
			if o+2 >= len(f.Pixels) {
				line[x] = ' '
				continue
			}
			r := int(f.Pixels[o])
			g := int(f.Pixels[o+1])
			b := int(f.Pixels[o+2])
			luma := (299*r + 587*g + 114*b) / 1000
			line[x] = ramp[luma*len(ramp)/256]
		}
		out = append(out, string(line))
	}
	return out
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
