// Package server exposes the processing status over HTTP: episode and
// breaker state as JSON, plus a WebSocket feed of live pipeline progress.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/scrypster/castgraph/internal/config"
	"github.com/scrypster/castgraph/internal/pipeline"
	"github.com/scrypster/castgraph/internal/retry"
	"github.com/scrypster/castgraph/internal/storage"
	"github.com/scrypster/castgraph/pkg/types"
)

// Server is the status HTTP server.
type Server struct {
	Store   storage.GraphStore
	Manager *retry.Manager
	Config  *config.Config
	Hub     *Hub
}

// New creates a server with a fresh hub.
func New(store storage.GraphStore, manager *retry.Manager, cfg *config.Config) *Server {
	return &Server{
		Store:   store,
		Manager: manager,
		Config:  cfg,
		Hub:     NewHub(),
	}
}

// OnProgress returns a pipeline callback that broadcasts progress events to
// WebSocket clients.
func (s *Server) OnProgress() pipeline.ProgressFunc {
	return func(event pipeline.Progress) {
		s.Hub.Broadcast(event)
	}
}

// Handler builds the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)

	// Authenticated API routes.
	api := http.NewServeMux()
	api.HandleFunc("/api/status", s.handleStatus)
	api.HandleFunc("/api/episodes", s.handleEpisodes)
	api.HandleFunc("/api/episodes/{id}/graph", s.handleEpisodeGraph)
	api.HandleFunc("/api/entities", s.handleEntities)
	api.HandleFunc("/api/entities/{id}/relationships", s.handleEntityRelationships)
	api.HandleFunc("/api/breakers", s.handleBreakers)
	api.HandleFunc("/api/breakers/reset", s.handleBreakersReset)
	mux.Handle("/api/", requireAuth(api, s.Config.Security.SecurityMode, s.Config.Security.APIToken))

	// WebSocket feed carries no mutations; origin checks suffice.
	mux.Handle("/ws", s.Hub)

	handler := rateLimit(mux, 10.0, 20)
	return securityHeaders(handler)
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully. Returns the bound address, useful with port 0 in tests.
func (s *Server) Start(ctx context.Context) (string, error) {
	go s.Hub.Run()

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: ERROR - %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		s.Hub.Stop()
	}()

	return listener.Addr().String(), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, map[string]string{"status": "healthy"})
}

// statusResponse is the /api/status document: episode counts by status plus
// breaker keys currently tracked.
type statusResponse struct {
	Episodes map[string]int `json:"episodes"`
	Total    int            `json:"total"`
	Breakers []string       `json:"breakers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	episodes, err := s.Store.ListEpisodes(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}

	counts := make(map[string]int)
	for _, episode := range episodes {
		counts[string(episode.Status)]++
	}

	writeJSON(w, statusResponse{
		Episodes: counts,
		Total:    len(episodes),
		Breakers: s.Manager.Keys(),
	})
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	episodes, err := s.Store.ListEpisodes(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	if episodes == nil {
		episodes = []*types.Episode{}
	}
	writeJSON(w, episodes)
}

// episodeGraph is the full extracted graph of one episode.
type episodeGraph struct {
	Episode  *types.Episode  `json:"episode"`
	Entities []types.Entity  `json:"entities"`
	Insights []types.Insight `json:"insights"`
	Quotes   []types.Quote   `json:"quotes"`
}

func (s *Server) handleEpisodeGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	id := r.PathValue("id")
	episode, err := s.Store.GetEpisode(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		notFound(w)
		return
	}
	if err != nil {
		serverError(w, err)
		return
	}

	entities, err := s.Store.ListEntitiesByEpisode(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return
	}
	insights, err := s.Store.ListInsightsByEpisode(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return
	}
	quotes, err := s.Store.ListQuotesByEpisode(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, episodeGraph{
		Episode:  episode,
		Entities: entities,
		Insights: insights,
		Quotes:   quotes,
	})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		badRequest(w, "query parameter q is required")
		return
	}

	entities, err := s.Store.SearchEntities(r.Context(), query, 50)
	if err != nil {
		serverError(w, err)
		return
	}
	if entities == nil {
		entities = []types.Entity{}
	}
	writeJSON(w, entities)
}

func (s *Server) handleEntityRelationships(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	rels, err := s.Store.ListRelationships(r.Context(), r.PathValue("id"))
	if err != nil {
		serverError(w, err)
		return
	}
	if rels == nil {
		rels = []types.Relationship{}
	}
	writeJSON(w, rels)
}

func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, s.Manager.States())
}

// handleBreakersReset force-closes breakers. With a "key" query parameter
// ("anthropic_key_0") only that breaker resets; without it, all of them.
func (s *Server) handleBreakersReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		s.Manager.ForceResetAll()
		writeJSON(w, map[string]string{"status": "reset_all"})
		return
	}

	api, index, err := parseBreakerKey(key)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	s.Manager.ForceReset(api, index)
	writeJSON(w, map[string]string{"status": "reset", "key": key})
}

// parseBreakerKey splits "anthropic_key_0" into its API name and key index.
func parseBreakerKey(key string) (string, int, error) {
	idx := strings.LastIndex(key, "_key_")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid breaker key %q", key)
	}
	var index int
	if _, err := fmt.Sscanf(key[idx+len("_key_"):], "%d", &index); err != nil {
		return "", 0, fmt.Errorf("invalid breaker key %q", key)
	}
	return key[:idx], index, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: ERROR - failed to encode response: %v", err)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func badRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, fmt.Sprintf(`{"error":%q}`, msg), http.StatusBadRequest)
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("server: ERROR - %v", err)
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
}
