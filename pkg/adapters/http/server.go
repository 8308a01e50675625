package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/lao"
	"github.com/aretw0/lao/internal/logging"
	mermaid "github.com/aretw0/lao/internal/presentation/graph"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize caps workflow request bodies.
const maxBodySize = 4 << 20

// Server exposes a WorkflowService over REST and server-sent events.
type Server struct {
	Service ports.WorkflowService

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics serves g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc ports.WorkflowService, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/plugins", s.ListPlugins)
	r.Post("/validate", s.ValidateWorkflow)
	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", s.ListWorkflows)
		r.Get("/{id}", s.GetResult)
		r.Post("/{id}/runs", s.StartRun)
		r.Get("/{id}/graph.mmd", s.GetMermaid)
		r.Get("/{id}/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>LAO API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ValidationIssue is the wire form of one graph.ValidationError.
type ValidationIssue struct {
	Kind    string   `json:"kind"`
	NodeIDs []string `json:"node_ids,omitempty"`
	Detail  string   `json:"detail,omitempty"`
}

// ValidationReport is returned by /validate and by rejected runs.
type ValidationReport struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

func reportOf(err error) ValidationReport {
	if err == nil {
		return ValidationReport{Valid: true}
	}
	rep := ValidationReport{}
	for _, ve := range graph.ValidationErrors(err) {
		rep.Errors = append(rep.Errors, ValidationIssue{Kind: string(ve.Kind), NodeIDs: ve.NodeIDs, Detail: ve.Detail})
	}
	return rep
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lao-http",
		"version":     strings.TrimSpace(lao.Version),
		"api_version": apiVersion,
	})
}

// ListPlugins handles GET /plugins.
func (s *Server) ListPlugins(w http.ResponseWriter, r *http.Request) {
	plugins := s.Service.Plugins()
	if plugins == nil {
		plugins = []domain.PluginDescriptor{}
	}
	s.writeJSON(w, http.StatusOK, plugins)
}

// ValidateWorkflow handles POST /validate.
func (s *Server) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	g, ok := s.decodeGraph(w, r)
	if !ok {
		return
	}
	err := s.Service.Validate(g)
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, reportOf(err))
}

// ListWorkflows handles GET /workflows.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "List failed", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	s.writeJSON(w, http.StatusOK, ids)
}

// GetResult handles GET /workflows/{id}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GetMermaid handles GET /workflows/{id}/graph.mmd.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(mermaid.GenerateMermaid(res.Graph, true)))
}

// StartRun handles POST /workflows/{id}/runs.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, ok := s.decodeGraph(w, r)
	if !ok {
		return
	}

	parallel := false
	if v := r.URL.Query().Get("parallel"); v != "" {
		p, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid parallel flag", http.StatusBadRequest)
			return
		}
		parallel = p
	}

	runID, err := s.Service.Start(r.Context(), id, g, parallel)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
	case errors.Is(err, domain.ErrRunInProgress):
		s.fail(w, http.StatusConflict, "Run rejected", err)
	case graph.IsValidationError(err):
		s.writeJSON(w, http.StatusUnprocessableEntity, reportOf(err))
	default:
		s.fail(w, http.StatusInternalServerError, "Start failed", err)
	}
}

func (s *Server) loadResult(w http.ResponseWriter, r *http.Request) (*domain.WorkflowResult, bool) {
	id := chi.URLParam(r, "id")
	res, err := s.Service.Result(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrWorkflowNotFound) {
			http.Error(w, fmt.Sprintf("Workflow %q has no completed run", id), http.StatusNotFound)
			return nil, false
		}
		s.fail(w, http.StatusInternalServerError, "Result failed", err)
		return nil, false
	}
	return res, true
}

func (s *Server) decodeGraph(w http.ResponseWriter, r *http.Request) (*domain.WorkflowGraph, bool) {
	var g domain.WorkflowGraph
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return nil, false
	}
	return &g, true
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Warn(msg, "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
