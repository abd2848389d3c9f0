package mcp

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

	"github.com/docsmith/docgen/src/data"
	"github.com/docsmith/docgen/src/generator"
	"github.com/docsmith/docgen/src/sdk"
)

// Config controls the MCP server runtime.
type Config struct {
	ListenAddr string
	AuthToken  string
	Logger     *log.Logger
}

// Server exposes stored documentation and the generation trigger through a
// lightweight MCP-inspired API.
type Server struct {
	store      *data.Store
	runtime    *sdk.Runtime
	gen        *generator.Service
	cfg        Config
	httpServer *http.Server
}

// NewServer constructs a server over the documentation store.
func NewServer(cfg Config, store *data.Store, runtime *sdk.Runtime, gen *generator.Service) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("mcp: store is required")
	}
	if runtime == nil {
		return nil, fmt.Errorf("mcp: agent runtime is required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = "127.0.0.1:8081"
	}
	return &Server{
		store:   store,
		runtime: runtime,
		gen:     gen,
		cfg:     cfg,
	}, nil
}

// Start begins serving requests until the context is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("mcp: listen %s: %w", s.cfg.ListenAddr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/projects", s.wrapAuth(s.tracked("list_projects", s.handleProjects)))
	mux.HandleFunc("/v1/projects/", s.wrapAuth(s.tracked("project_resource", s.handleProjectResource)))
	mux.HandleFunc("/v1/agents", s.wrapAuth(s.tracked("agent_capabilities", s.handleAgents)))
	mux.HandleFunc("/v1/tools", s.wrapAuth(s.tracked("list_tools", s.handleTools)))
	mux.HandleFunc("/v1/generate", s.wrapAuth(s.tracked("trigger_generation", s.handleGenerate)))

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logf("listening on %s", s.cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) wrapAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := strings.TrimSpace(s.cfg.AuthToken); token != "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) != token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	}
}

// tracked records every invocation in the request log with its latency.
func (s *Server) tracked(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		req := &data.MCPRequest{
			Method:         r.Method,
			Endpoint:       endpoint,
			RequestParams:  data.JSONMap{"path": r.URL.Path, "query": r.URL.RawQuery},
			ResponseStatus: rec.status,
			ResponseTimeMs: int(time.Since(start).Milliseconds()),
			UserAgent:      r.UserAgent(),
		}
		if err := s.store.TrackMCPRequest(req); err != nil {
			s.logf("track request: %v", err)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	projects, err := s.store.ListProjects()
	if err != nil {
		http.Error(w, fmt.Sprintf("list projects failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trimmed := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "missing project id", http.StatusBadRequest)
		return
	}
	projectID := parts[0]

	segment := ""
	if len(parts) > 1 {
		segment = parts[1]
	}

	switch segment {
	case "":
		s.handleProject(w, projectID)
	case "architecture":
		s.handleArchitecture(w, projectID)
	case "components":
		name := ""
		if len(parts) > 2 {
			name = parts[2]
		}
		s.handleComponents(w, r, projectID, name)
	case "statistics":
		s.handleStatistics(w, projectID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleProject(w http.ResponseWriter, projectID string) {
	project, err := s.store.Project(projectID)
	if err != nil {
		http.Error(w, fmt.Sprintf("load project failed: %v", err), http.StatusInternalServerError)
		return
	}
	if project == nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleArchitecture(w http.ResponseWriter, projectID string) {
	arch, err := s.store.LatestArchitecture(projectID)
	if err != nil {
		http.Error(w, fmt.Sprintf("load architecture failed: %v", err), http.StatusInternalServerError)
		return
	}
	if arch == nil {
		http.Error(w, "no architecture analysis stored", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, arch)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request, projectID, name string) {
	if name != "" {
		comp, err := s.store.ComponentByName(projectID, name)
		if err != nil {
			http.Error(w, fmt.Sprintf("load component failed: %v", err), http.StatusInternalServerError)
			return
		}
		if comp == nil {
			http.Error(w, "component not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, comp)
		return
	}

	var (
		comps []data.Component
		err   error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		comps, err = s.store.SearchComponents(projectID, query)
	} else {
		comps, err = s.store.ProjectComponents(projectID)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("load components failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": comps})
}

func (s *Server) handleStatistics(w http.ResponseWriter, projectID string) {
	stats, err := s.store.ProjectStatistics(projectID)
	if err != nil {
		http.Error(w, fmt.Sprintf("load statistics failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": s.runtime.SDK.ListAgents()})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": Tools()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.gen == nil {
		http.Error(w, "generation not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		RepoURL      string `json:"repo_url"`
		Space        string `json:"space,omitempty"`
		ExportFormat string `json:"export_format,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	job, err := s.gen.Submit(r.Context(), req.RepoURL, req.Space, req.ExportFormat)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (s *Server) logf(format string, args ...any) {
	if s.cfg.Logger == nil {
		return
	}
	s.cfg.Logger.Printf(format, args...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
