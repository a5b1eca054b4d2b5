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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/internal/presentation/graph"
	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/runner"
)

const catalogURI = "onboarding://catalog"

// StepResponse is the result of every session tool.
type StepResponse struct {
	SessionID   string           `json:"session_id" jsonschema_description:"Session the step applied to"`
	State       domain.FlowState `json:"state" jsonschema_description:"Flow state after the step"`
	Messages    []string         `json:"messages" jsonschema_description:"Assistant messages produced by the step"`
	Options     []string         `json:"options,omitempty" jsonschema_description:"Choices offered by the last message"`
	MultiSelect bool             `json:"multi_select,omitempty" jsonschema_description:"Whether several options may be chosen"`
	Complete    bool             `json:"complete" jsonschema_description:"Whether the campaign is fully configured"`
	Error       string           `json:"error,omitempty" jsonschema_description:"Set when the step failed but the session was still updated"`
}

// Service is the part of onboarding.Service exposed as tools.
type Service interface {
	Start(ctx context.Context, id string) (*domain.Session, error)
	Session(ctx context.Context, id string) (*domain.Session, error)
	Reply(ctx context.Context, id string, input any) (*domain.Session, error)
	Resolve(ctx context.Context, id string, r domain.Resolution) (*domain.Session, error)
	Launch(ctx context.Context, id string) (*domain.Session, error)
	Payload(ctx context.Context, id string) (domain.CampaignPayload, error)
	Reset(ctx context.Context, id string) (*domain.Session, error)
	Catalog() *catalog.Catalog
}

// Server exposes the onboarding Service as an MCP server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, version string, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("lad-onboarding", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
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

		s.logger.Info("Shutdown signal received, stopping MCP server")
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

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type replyArgs struct {
	SessionID string   `json:"session_id"`
	Input     string   `json:"input"`
	Choices   []string `json:"choices"`
}

type resolveArgs struct {
	SessionID  string `json:"session_id"`
	Resolution string `json:"resolution"`
}

type workflowArgs struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start an onboarding session, or resume it when it already exists."),
		mcp.WithString("session_id", mcp.Description("Session ID (generated when omitted)")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("reply",
		mcp.WithDescription("Answer the pending question. Use choices for multi-select questions."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("input", mcp.Description("Free text or a single option label")),
		mcp.WithArray("choices", mcp.WithStringItems(), mcp.Description("Selected option labels")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleReply))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Cancel any running step and restart the interview."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("resolve_duplicates",
		mcp.WithDescription("Answer the pending duplicate-lead checkpoint."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("resolution", mcp.Required(),
			mcp.Enum(string(domain.ResolveSkipDuplicates), string(domain.ResolveIncludeAll),
				string(domain.ResolveFollowUpNow), string(domain.ResolveConfirmCancel), string(domain.ResolveBack)),
			mcp.Description("Decision for the duplicate leads")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleResolve))

	s.mcpServer.AddTool(mcp.NewTool("launch",
		mcp.WithDescription("Create and start the campaign of a completed session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleLaunch))

	s.mcpServer.AddTool(mcp.NewTool("get_workflow",
		mcp.WithDescription("Get the workflow graph preview of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("format", mcp.Enum("json", "mermaid"), mcp.Description("Output format (default json)")),
	), s.handleWorkflow)

	s.mcpServer.AddTool(mcp.NewTool("get_payload",
		mcp.WithDescription("Get the campaign payload a launch would send."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handlePayload)
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	var before int
	if existing, err := s.svc.Session(ctx, args.SessionID); err == nil {
		before = len(existing.Turns)
	}
	session, err := s.svc.Start(ctx, args.SessionID)
	if err != nil {
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	if before == len(session.Turns) {
		// Resuming: repeat the pending question.
		before = max(0, before-1)
	}
	return stepResponse(session, before, nil), nil
}

func (s *Server) handleReply(ctx context.Context, _ mcp.CallToolRequest, args replyArgs) (StepResponse, error) {
	var input any
	switch {
	case len(args.Choices) > 0:
		clean := make([]string, len(args.Choices))
		for i, c := range args.Choices {
			v, err := runner.SanitizeInput(c)
			if err != nil {
				return StepResponse{}, fmt.Errorf("input rejected: %w", err)
			}
			clean[i] = v
		}
		input = clean
	default:
		v, err := runner.SanitizeInput(args.Input)
		if err != nil {
			s.logger.WarnContext(ctx, "MCP Reply: Input rejected", "err", err, "size", len(args.Input))
			return StepResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		input = v
	}
	return s.step(ctx, args.SessionID, func(ctx context.Context) (*domain.Session, error) {
		return s.svc.Reply(ctx, args.SessionID, input)
	})
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	return s.step(ctx, args.SessionID, func(ctx context.Context) (*domain.Session, error) {
		return s.svc.Reset(ctx, args.SessionID)
	})
}

func (s *Server) handleResolve(ctx context.Context, _ mcp.CallToolRequest, args resolveArgs) (StepResponse, error) {
	return s.step(ctx, args.SessionID, func(ctx context.Context) (*domain.Session, error) {
		return s.svc.Resolve(ctx, args.SessionID, domain.Resolution(args.Resolution))
	})
}

func (s *Server) handleLaunch(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	return s.step(ctx, args.SessionID, func(ctx context.Context) (*domain.Session, error) {
		return s.svc.Launch(ctx, args.SessionID)
	})
}

// step runs fn and reports the turns it appended. A step that failed but still returned
// a session, like a failed launch, is reported with Error set.
func (s *Server) step(ctx context.Context, id string, fn func(context.Context) (*domain.Session, error)) (StepResponse, error) {
	before, err := s.svc.Session(ctx, id)
	if err != nil {
		return StepResponse{}, err
	}
	after, err := fn(ctx)
	if after == nil {
		if err == nil {
			err = errors.New("no session returned")
		}
		return StepResponse{}, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "MCP step failed", "err", err, "session_id", id)
	}
	from := len(before.Turns)
	if from > len(after.Turns) {
		from = 0
	}
	return stepResponse(after, from, err), nil
}

func stepResponse(session *domain.Session, from int, err error) StepResponse {
	resp := StepResponse{
		SessionID: session.ID,
		State:     session.State,
		Messages:  []string{},
		Complete:  session.State == domain.StateComplete,
	}
	for _, turn := range session.Turns[from:] {
		if turn.Role == domain.RoleAssistant {
			resp.Messages = append(resp.Messages, turn.Text)
		}
	}
	if last := session.LastTurn(); last != nil && last.HasOptions() {
		resp.Options = last.Hints.Options.Choices
		resp.MultiSelect = last.Hints.Options.Kind == domain.OptionMultiSelect
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (s *Server) handleWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args workflowArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	session, err := s.svc.Session(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if args.Format == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(session.Workflow, graph.OverlayFor(session))), nil
	}
	jsonBytes, _ := json.Marshal(session.Workflow)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handlePayload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	payload, err := s.svc.Payload(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("payload failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(payload)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(catalogURI, "Platform catalog",
		mcp.WithResourceDescription("Platforms, actions and their dependencies"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.svc.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      catalogURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
