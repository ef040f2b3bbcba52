// ABOUTME: Entry point for the Cadence media player
// ABOUTME: Wires source, cache, workers and coordinator, then runs the TUI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/Cadence-Player/cadence-go/internal/cache"
	"github.com/Cadence-Player/cadence-go/internal/config"
	"github.com/Cadence-Player/cadence-go/internal/diag"
	"github.com/Cadence-Player/cadence-go/internal/engine"
	"github.com/Cadence-Player/cadence-go/internal/render"
	"github.com/Cadence-Player/cadence-go/internal/source"
	"github.com/Cadence-Player/cadence-go/internal/ui"
	"github.com/Cadence-Player/cadence-go/internal/version"
	"github.com/Cadence-Player/cadence-go/pkg/media"
	"github.com/Cadence-Player/cadence-go/pkg/playback"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	cfg := config.Load()

	useTUI := !cfg.NoTUI

	// TUI mode: the terminal belongs to the interface, so logs go to a file.
	if useTUI {
		f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(f)
	}

	log.Infof("Starting %s %s", version.Product, version.Version)

	src, sourceName, err := openSource(cfg)
	if err != nil {
		log.Fatalf("open source: %v", err)
	}

	cached := cache.New(src, cache.Config{
		Ahead:  int64(cfg.CacheAhead),
		Behind: int64(cfg.CacheBehind),
	})

	info := cached.Info()
	log.Infof("Source %s: %s fps, %d frames, audio=%v video=%v",
		sourceName, info.FPS, info.VideoLength, info.HasAudio, info.HasVideo)

	var device engine.Device
	if cfg.Silent {
		device = engine.NewSilentDevice()
	} else {
		device = engine.NewOtoDevice()
	}
	eng := engine.New(cached, device)

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Controls

	if useTUI {
		ctrl = ui.NewControls()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Presented frames feed the TUI preview pane when it is active.
	var display render.Display = render.Discard
	if useTUI {
		display = render.DisplayFunc(func(frame *media.Frame) error {
			tuiProg.Send(ui.FrameMsg{Frame: frame})
			return nil
		})
	}
	rend := render.New(display)

	// Diagnostics
	latest := &latestTick{}
	sinks := []playback.Sink{latest, diag.NewLogSink()}

	var hub *diag.Hub
	if cfg.EnableDiag {
		hub = diag.NewHub()
		sinks = append(sinks, hub)
	}

	coord := playback.NewCoordinator(playback.Config{
		Source:   cached,
		Audio:    eng,
		Video:    rend,
		Cache:    cached,
		Sink:     diag.Multi(sinks...),
		MaxSleep: time.Duration(cfg.MaxSleepMS) * time.Millisecond,
	})

	if hub != nil {
		hub.RegisterStats("player", func() any {
			return map[string]string{
				"product":      version.Product,
				"manufacturer": version.Manufacturer,
				"version":      version.Version,
				"source":       sourceName,
			}
		})
		hub.RegisterStats("coordinator", func() any { return coord.Stats() })
		hub.RegisterStats("engine", func() any { return eng.Stats() })
		hub.RegisterStats("cache", func() any { return cached.Stats() })
		hub.RegisterStats("renderer", func() any { return rend.Stats() })

		if err := hub.Start(cfg.DiagAddr); err != nil {
			log.Fatalf("diagnostics server: %v", err)
		}
		log.Infof("Diagnostics on http://%s", cfg.DiagAddr)
	}

	if !coord.StartPlayback() {
		log.Fatal("playback refused to start")
	}

	done := make(chan struct{})

	if ctrl != nil {
		go handleControls(coord, ctrl, done)
	}

	if tuiProg != nil {
		go statsUpdateLoop(func() ui.StatusMsg {
			return statusSnapshot(coord, eng, cached, rend, latest, info, sourceName)
		}, updateTUI, done)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if ctrl != nil {
		select {
		case <-ctrl.Quit:
			log.Info("Received quit signal from TUI")
		case <-sigChan:
			log.Info("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Info("Shutdown signal received")
	}

	close(done)

	coord.StopPlayback()

	if hub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := hub.Shutdown(ctx); err != nil {
			log.Warnf("diagnostics shutdown: %v", err)
		}
		cancel()
	}

	if tuiProg != nil {
		tuiProg.Quit()
	}

	if err := cached.Close(); err != nil {
		log.Warnf("closing source: %v", err)
	}

	log.Info("Player stopped")
}

// openSource opens the configured MP3, or the built-in demo stream when no
// source path is given.
func openSource(cfg config.PlayerCfg) (media.FrameSource, string, error) {
	if cfg.Source != "" {
		src, err := source.OpenMP3(cfg.Source)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", cfg.Source, err)
		}
		return src, filepath.Base(cfg.Source), nil
	}

	src := source.NewSynthetic(source.SyntheticConfig{
		FPS:    media.Fraction{Num: cfg.SynthFPS, Den: 1},
		Length: int64(cfg.SynthSeconds) * int64(cfg.SynthFPS),
		Width:  cfg.SynthWidth,
		Height: cfg.SynthHeight,
		ToneHz: cfg.ToneHz,
	})
	return src, "demo stream", nil
}

// handleControls applies transport commands coming from the TUI.
func handleControls(coord *playback.Coordinator, ctrl *ui.Controls, done <-chan struct{}) {
	for {
		select {
		case msg := <-ctrl.Speeds:
			log.Debugf("speed command: %d", msg.Speed)
			coord.SetSpeed(msg.Speed)
		case msg := <-ctrl.Seeks:
			target := msg.Frames
			if !msg.Absolute {
				target += coord.Position()
			}
			log.Debugf("seek command: %d", target)
			coord.Seek(target)
		case <-done:
			return
		}
	}
}

// statsUpdateLoop periodically pushes playback statistics to the TUI.
func statsUpdateLoop(snapshot func() ui.StatusMsg, updateTUI func(ui.StatusMsg), done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			updateTUI(snapshot())
		case <-done:
			return
		}
	}
}

// statusSnapshot gathers one TUI status update from all components.
func statusSnapshot(coord *playback.Coordinator, eng *engine.Engine, cached *cache.Cache, rend *render.Renderer, latest *latestTick, info media.StreamInfo, sourceName string) ui.StatusMsg {
	stats := coord.Stats()
	es := eng.Stats()
	cs := cached.Stats()
	rs := rend.Stats()

	running := stats.Running
	msg := ui.StatusMsg{
		Running:       &running,
		Session:       stats.Session,
		Source:        sourceName,
		FPS:           info.FPS.String(),
		FrameWidth:    info.Width,
		FrameHeight:   info.Height,
		Length:        info.VideoLength,
		HasAudio:      info.HasAudio,
		HasVideo:      info.HasVideo,
		SampleRate:    info.SampleRate,
		Channels:      info.Channels,
		VideoPosition: stats.VideoPosition,
		AudioPosition: stats.AudioPosition,
		FrameDiff:     stats.FrameDiff,
		Speed:         stats.Speed,
		Presented:     rs.Presented,
		Dropped:       rs.Dropped,
		CacheHits:     cs.Hits,
		CacheMisses:   cs.Misses,
		Prefetched:    cs.Prefetched,
		AudioFrames:   es.FramesWritten,
		AudioBytes:    es.BytesWritten,
	}

	if tick, ok := latest.Latest(); ok {
		msg.RenderTime = tick.RenderTime
		msg.SleepTime = tick.SleepTime
	}

	return msg
}

// latestTick retains the most recent loop tick for the TUI debug pane.
type latestTick struct {
	mu   sync.Mutex
	tick playback.Tick
	ok   bool
}

func (l *latestTick) Record(tick playback.Tick) {
	l.mu.Lock()
	l.tick = tick
	l.ok = true
	l.mu.Unlock()
}

func (l *latestTick) Latest() (playback.Tick, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tick, l.ok
}
