package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lao"
	"github.com/aretw0/lao/internal/logging"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/ports"
	"github.com/aretw0/lao/pkg/workflowfile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultWaitTimeout bounds how long run_workflow waits for completion.
const DefaultWaitTimeout = 5 * time.Minute

// RunArgs are the arguments of the run_workflow tool.
type RunArgs struct {
	WorkflowID string `json:"workflow_id"`
	Workflow   string `json:"workflow"`
	Parallel   bool   `json:"parallel"`
	Wait       bool   `json:"wait"`
}

// RunResponse reports a started or finished run.
type RunResponse struct {
	RunID    string                 `json:"run_id" jsonschema_description:"Id of the started run"`
	Finished bool                   `json:"finished" jsonschema_description:"True when the run completed before the tool returned"`
	Result   *domain.WorkflowResult `json:"result,omitempty" jsonschema_description:"Final graph when finished"`
}

// ValidateArgs are the arguments of the validate_workflow tool.
type ValidateArgs struct {
	Workflow string `json:"workflow"`
}

// ValidateResponse reports whether a workflow can run.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Server exposes a WorkflowService as an MCP server.
type Server struct {
	service     ports.WorkflowService
	mcpServer   *server.MCPServer
	waitTimeout time.Duration
	logger      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithWaitTimeout bounds run_workflow calls that wait for completion.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.waitTimeout = d
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc ports.WorkflowService, opts ...Option) *Server {
	s := &Server{
		service:     svc,
		mcpServer:   server.NewMCPServer("lao-mcp", strings.TrimSpace(lao.Version)),
		waitTimeout: DefaultWaitTimeout,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_plugins",
		mcp.WithDescription("List the loaded plugins with their metadata and capabilities."),
	), s.handleListPlugins)

	validateTool := mcp.NewTool("validate_workflow",
		mcp.WithDescription("Check a workflow graph (YAML or JSON) for duplicate ids, unknown nodes and cycles."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow document with nodes and edges")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Run a workflow graph. With wait, returns the final graph with every node's output."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow instance id; one run per id at a time")),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow document with nodes and edges")),
		mcp.WithBoolean("parallel", mcp.Description("Run independent nodes concurrently")),
		mcp.WithBoolean("wait", mcp.Description("Wait for the run to finish")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("get_result",
		mcp.WithDescription("Get the last completed result of a workflow."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow instance id")),
	), s.handleGetResult)
}

func (s *Server) handleListPlugins(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.service.Plugins())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (ValidateResponse, error) {
	g, err := parseWorkflow(args.Workflow)
	if err != nil {
		return ValidateResponse{}, err
	}
	if err := s.service.Validate(g); err != nil {
		return ValidateResponse{Valid: false, Errors: splitErrors(err)}, nil
	}
	return ValidateResponse{Valid: true}, nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (RunResponse, error) {
	if args.WorkflowID == "" {
		return RunResponse{}, errors.New("workflow_id is required")
	}
	g, err := parseWorkflow(args.Workflow)
	if err != nil {
		return RunResponse{}, err
	}

	var events <-chan domain.Event
	if args.Wait {
		ch, unsubscribe := s.service.Subscribe(args.WorkflowID)
		defer unsubscribe()
		events = ch
	}

	runID, err := s.service.Start(ctx, args.WorkflowID, g, args.Parallel)
	if err != nil {
		s.logger.Warn("MCP run rejected", "workflow", args.WorkflowID, "err", err)
		return RunResponse{}, fmt.Errorf("run rejected: %w", err)
	}
	if !args.Wait {
		return RunResponse{RunID: runID}, nil
	}

	timeout := time.NewTimer(s.waitTimeout)
	defer timeout.Stop()
	for {
		select {
		case <-ctx.Done():
			return RunResponse{RunID: runID}, ctx.Err()
		case <-timeout.C:
			return RunResponse{RunID: runID}, nil
		case e, ok := <-events:
			if !ok {
				return RunResponse{RunID: runID}, nil
			}
			if e.Type != domain.EventWorkflowCompleted || e.Workflow.RunID != runID {
				continue
			}
			res := s.waitResult(ctx, args.WorkflowID, runID)
			return RunResponse{RunID: runID, Finished: res != nil, Result: res}, nil
		}
	}
}

// waitResult polls briefly for the saved result of runID; the completion
// event can overtake the store write.
func (s *Server) waitResult(ctx context.Context, workflowID, runID string) *domain.WorkflowResult {
	for i := 0; i < 50; i++ {
		if res, err := s.service.Result(ctx, workflowID); err == nil && res.RunID == runID {
			return res
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

func (s *Server) handleGetResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("workflow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.service.Result(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no result: %v", err)), nil
	}
	data, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("lao://plugins", "Loaded Plugins",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.service.Plugins())
		if err != nil {
			return nil, fmt.Errorf("failed to encode plugins: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "lao://plugins",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// parseWorkflow accepts YAML or JSON; JSON is valid YAML.
func parseWorkflow(doc string) (*domain.WorkflowGraph, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, errors.New("workflow is required")
	}
	g, err := workflowfile.Parse([]byte(doc), workflowfile.FormatYAML)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func splitErrors(err error) []string {
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		var out []string
		for _, e := range multi.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
