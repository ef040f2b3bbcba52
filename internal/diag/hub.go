// ABOUTME: Diagnostics hub serving playback telemetry over HTTP
// ABOUTME: Latest-tick and stats endpoints plus a websocket tick stream
package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/Cadence-Player/cadence-go/pkg/playback"
)

// Hub is a playback.Sink that retains the most recent tick and streams
// ticks to websocket subscribers. It also exposes registered stats
// providers as a JSON endpoint for inspecting a live player.
type Hub struct {
	mu        sync.RWMutex
	latest    playback.Tick
	hasTick   bool
	clients   map[*hubClient]struct{}
	providers map[string]func() any

	upgrader websocket.Upgrader
	server   *http.Server
}

type hubClient struct {
	conn *websocket.Conn
	send chan playback.Tick
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*hubClient]struct{}),
		providers: make(map[string]func() any),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Record stores the tick and offers it to every subscriber without
// blocking; slow subscribers miss ticks rather than stalling the loop.
func (h *Hub) Record(tick playback.Tick) {
	h.mu.Lock()
	h.latest = tick
	h.hasTick = true
	for c := range h.clients {
		select {
		case c.send <- tick:
		default:
		}
	}
	h.mu.Unlock()
}

// RegisterStats exposes fn's snapshot under name on the stats endpoint.
func (h *Hub) RegisterStats(name string, fn func() any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers[name] = fn
}

// Handler returns the hub's HTTP routes.
func (h *Hub) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/ticks/latest", h.handleLatest).Methods("GET")
	r.HandleFunc("/api/stats", h.handleStats).Methods("GET")
	r.HandleFunc("/ws", h.handleWS)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// Start listens on addr and serves the hub in the background.
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.server = &http.Server{Handler: h.Handler()}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("diagnostics server: %v", err)
		}
	}()
	log.Infof("diagnostics server listening on %s", ln.Addr())
	return nil
}

// Shutdown stops the HTTP server and drops all websocket subscribers.
func (h *Hub) Shutdown(ctx context.Context) error {
	var err error
	if h.server != nil {
		err = h.server.Shutdown(ctx)
	}
	h.mu.Lock()
	for c := range h.clients {
		c.conn.Close()
	}
	h.mu.Unlock()
	return err
}

func (h *Hub) handleLatest(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	tick, ok := h.latest, h.hasTick
	h.mu.RUnlock()

	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, tick)
}

func (h *Hub) handleStats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	providers := make(map[string]func() any, len(h.providers))
	for name, fn := range h.providers {
		providers[name] = fn
	}
	h.mu.RUnlock()

	// Providers run outside the hub lock; they may take their own.
	stats := make(map[string]any, len(providers))
	for name, fn := range providers {
		stats[name] = fn()
	}
	writeJSON(w, stats)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade: %v", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan playback.Tick, 64)}
	h.addClient(client)
	defer h.removeClient(client)

	// Reader exists only to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case tick := <-client.send:
			if err := conn.WriteJSON(tick); err != nil {
				return
			}
		}
	}
}

func (h *Hub) addClient(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	log.Debugf("diagnostics subscriber connected (%d active)", count)
}

func (h *Hub) removeClient(c *hubClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode diagnostics response: %v", err)
	}
}
