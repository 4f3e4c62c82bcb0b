// Package server serves the in-memory catalog over HTTP and pushes a
// notification to websocket clients every time it is regenerated.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/metagen/internal/build"
	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/config"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/logging"
	"github.com/conneroisu/metagen/internal/registry"
	"github.com/conneroisu/metagen/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Client is a connected websocket peer.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *CatalogServer
}

// BuildStats reports the metrics of the pipeline feeding the registry.
type BuildStats interface {
	GetMetrics() build.BuildMetrics
}

// CatalogServer serves the records held by a registry.
type CatalogServer struct {
	config   config.ServerConfig
	registry *registry.ComponentRegistry
	logger   logging.Logger
	builds   BuildStats

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	hubDone      chan struct{}

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// UpdateMessage is sent to websocket clients after a regeneration.
type UpdateMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// New creates a server over reg. A nil logger discards output.
func New(cfg config.ServerConfig, reg *registry.ComponentRegistry, logger logging.Logger) *CatalogServer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CatalogServer{
		config:     cfg,
		registry:   reg,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		hubDone:    make(chan struct{}),
	}
}

// SetBuildStats adds the pipeline's build metrics to /healthz.
func (s *CatalogServer) SetBuildStats(stats BuildStats) {
	s.builds = stats
}

// Addr is the listen address from the configuration.
func (s *CatalogServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Handler returns the routes wrapped in the CORS and logging middleware.
// Websocket clients are only served while Run is active.
func (s *CatalogServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /components.json", s.handleComponents)
	mux.HandleFunc("GET /components/{slug}", s.handleComponent)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return s.addMiddleware(mux)
}

// Run forwards registry events to websocket clients until ctx is done.
func (s *CatalogServer) Run(ctx context.Context) {
	events := s.registry.Watch()
	defer s.registry.UnWatch(events)

	go s.runWebSocketHub(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.broadcastMessage(ctx, UpdateMessage{Type: event.Type.String(), Count: event.Count})
		}
	}
}

// Start serves until ctx is done or the listener fails.
func (s *CatalogServer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.Run(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "server shutdown")
		}
	}()

	s.logger.Info(ctx, "serving catalog", "addr", "http://"+s.Addr(), "components", s.registry.Count())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.NewIOError(errors.ErrCodeServerFailed, "server error", err)
	}
	return nil
}

// Shutdown stops the HTTP server. It is safe to call more than once.
func (s *CatalogServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *CatalogServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// isAllowedOrigin checks if the origin is in the allowed origins list
func (s *CatalogServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

func (s *CatalogServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    version.GetShortVersion(),
		"components": s.registry.Count(),
	}
	if s.builds != nil {
		m := s.builds.GetMetrics()
		health["builds"] = map[string]interface{}{
			"total":            m.TotalBuilds,
			"successful":       m.SuccessfulBuilds,
			"failed":           m.FailedBuilds,
			"last_components":  m.LastComponents,
			"average_duration": m.AverageDuration.String(),
		}
	}
	s.writeJSON(w, r, http.StatusOK, health)
}

// handleComponents serves the whole catalog. ?phase= filters by phase and
// ?format=yaml switches the encoding.
func (s *CatalogServer) handleComponents(w http.ResponseWriter, r *http.Request) {
	format, err := catalog.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records := s.registry.All()
	if phase := r.URL.Query().Get("phase"); phase != "" {
		filtered := make([]catalog.ComponentMeta, 0, len(records))
		for _, rec := range records {
			if strings.EqualFold(string(rec.Phase), phase) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if format == catalog.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := catalog.Encode(w, records, format); err != nil {
		s.logger.Error(r.Context(), err, "encoding catalog")
	}
}

func (s *CatalogServer) handleComponent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	component, exists := s.registry.GetBySlug(slug)
	if !exists {
		s.writeJSON(w, r, http.StatusNotFound, map[string]interface{}{
			"error":       errors.ErrComponentNotFound(slug).Message,
			"suggestions": errors.ComponentNotFoundError(slug, s.registry.Names()),
		})
		return
	}

	s.writeJSON(w, r, http.StatusOK, component)
}

func (s *CatalogServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		s.logger.Error(r.Context(), err, "encoding response")
	}
}

func (s *CatalogServer) broadcastMessage(ctx context.Context, msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, err, "marshal update message")
		return
	}

	select {
	case s.broadcast <- data:
	case <-s.hubDone:
	case <-ctx.Done():
	}
}
