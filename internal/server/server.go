// Package server exposes a monitored port topology over HTTP.
//
// The API serves the current snapshot as JSON, computed node positions,
// an on-demand refresh trigger, and a server-sent event stream of
// topology changes.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lwiedman/portgraph/pkg/graphio"
	"github.com/lwiedman/portgraph/pkg/layout"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// Server serves a Monitor's topology over HTTP.
type Server struct {
	monitor  *topo.Monitor
	logger   *log.Logger
	xSpacing float64
	ySpacing float64

	mu      sync.Mutex
	clients map[chan string]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithSpacing overrides the layout spacing used by the layout endpoint.
func WithSpacing(x, y float64) Option {
	return func(s *Server) {
		s.xSpacing = x
		s.ySpacing = y
	}
}

// New creates a Server for the given monitor. A nil logger discards
// output. The server subscribes to the monitor to feed its event
// stream; call Close when done.
func New(mon *topo.Monitor, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		monitor:  mon,
		logger:   logger,
		xSpacing: layout.DefaultXSpacing,
		ySpacing: layout.DefaultYSpacing,
		clients:  make(map[chan string]struct{}),
	}
	mon.Subscribe(s)
	return s
}

// NewWithOptions creates a Server with options applied.
func NewWithOptions(mon *topo.Monitor, logger *log.Logger, opts ...Option) *Server {
	s := New(mon, logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close detaches the server from the monitor and drops all event
// stream clients.
func (s *Server) Close() {
	s.monitor.Unsubscribe(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		close(ch)
	}
	s.clients = make(map[chan string]struct{})
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/topology", s.handleTopology)
		r.Get("/layout", s.handleLayout)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

// handleTopology serves the current snapshot as JSON.
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	doc := graphio.FromSnapshot(s.monitor.Current())
	writeJSON(w, s.logger, doc)
}

// handleLayout serves the computed node positions for the current
// snapshot, keyed by port name.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap := s.monitor.Current()
	positions := layout.Position(snap.Edges(), snap.Ports(), s.xSpacing, s.ySpacing, layout.Point{})
	writeJSON(w, s.logger, positions)
}

// handleRefresh triggers an immediate refresh and reports the result.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.monitor.Refresh(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("refresh failed: %v", err), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams topology changes as server-sent events. Each
// change is one event; slow clients have events dropped rather than
// stalling the monitor.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 64)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if _, present := s.clients[ch]; present {
			delete(s.clients, ch)
			close(ch)
		}
		s.mu.Unlock()
	}()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast fans an event line out to all connected clients, dropping
// it for clients whose buffers are full.
func (s *Server) broadcast(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- event:
		default:
			s.logger.Debug("dropping event for slow client", "event", event)
		}
	}
}

// sseEvent is the JSON payload of one change event.
type sseEvent struct {
	Type string `json:"type"`
	Port string `json:"port,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

func (s *Server) emit(e sseEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("failed to encode event", "error", err)
		return
	}
	s.broadcast(string(data))
}

var _ topo.Listener = (*Server)(nil)

// PortAdded implements topo.Listener.
func (s *Server) PortAdded(name string) {
	s.emit(sseEvent{Type: "port_added", Port: name})
}

// PortRemoved implements topo.Listener.
func (s *Server) PortRemoved(name string) {
	s.emit(sseEvent{Type: "port_removed", Port: name})
}

// EdgeAdded implements topo.Listener.
func (s *Server) EdgeAdded(src, dest string) {
	s.emit(sseEvent{Type: "edge_added", From: src, To: dest})
}

// EdgeRemoved implements topo.Listener.
func (s *Server) EdgeRemoved(src, dest string) {
	s.emit(sseEvent{Type: "edge_removed", From: src, To: dest})
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
