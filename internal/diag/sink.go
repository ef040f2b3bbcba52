// ABOUTME: Tick sinks for playback loop telemetry
// ABOUTME: Structured log sink and a fanout combinator
package diag

import (
	log "github.com/sirupsen/logrus"

	"github.com/Cadence-Player/cadence-go/pkg/playback"
)

// LogSink writes every tick as a structured debug entry.
type LogSink struct{}

// NewLogSink returns a logging sink.
func NewLogSink() LogSink { return LogSink{} }

// Record logs the tick's fields.
func (LogSink) Record(tick playback.Tick) {
	log.WithFields(log.Fields{
		"session": tick.Session,
		"video":   tick.VideoPosition,
		"audio":   tick.AudioPosition,
		"diff":    tick.FrameDiff,
		"speed":   tick.Speed,
		"render":  tick.RenderTime,
		"sleep":   tick.SleepTime,
	}).Debug("playback tick")
}

// Multi fans ticks out to every given sink. Nil sinks are skipped.
func Multi(sinks ...playback.Sink) playback.Sink {
	kept := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	switch len(kept) {
	case 0:
		return playback.NopSink{}
	case 1:
		return kept[0]
	}
	return kept
}

type multiSink []playback.Sink

func (m multiSink) Record(tick playback.Tick) {
	for _, s := range m {
		s.Record(tick)
	}
}
