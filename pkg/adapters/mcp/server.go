package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	GraphURI        = "chatflow://graph"
	GraphMermaidURI = "chatflow://graph/mermaid"
)

// Service is the conversation backend exposed to MCP clients.
type Service interface {
	Turn(ctx context.Context, sessionID, text string) (domain.State, error)
	Load(ctx context.Context, sessionID string) (domain.State, error)
	List(ctx context.Context) ([]string, error)
	Graph() *graph.Graph
}

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResult is the structured output of the chat tool.
type ChatResult struct {
	SessionID string         `json:"session_id" jsonschema_description:"Session the turn belongs to"`
	Reply     string         `json:"reply" jsonschema_description:"The assistant's answer"`
	Turns     int            `json:"turns" jsonschema_description:"Number of user messages in the session"`
	Metadata  map[string]any `json:"metadata,omitempty" jsonschema_description:"Metadata stamped by the turn"`
}


// Server exposes a Service as an MCP server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		svc:       svc,
		logger:    logger,
		mcpServer: server.NewMCPServer("chatflow-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send a user message and get the assistant's reply. Omit session_id to start a new conversation."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("session_id", mcp.Description("Conversation to continue (optional)")),
		mcp.WithOutputSchema[ChatResult](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List stored conversation IDs."),
	), s.handleListSessions)

	s.mcpServer.AddTool(mcp.NewTool("export_session",
		mcp.WithDescription("Export a conversation as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation to export")),
	), s.handleExport)
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (ChatResult, error) {
	sessionID := args.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	final, err := s.svc.Turn(ctx, sessionID, args.Message)
	if err != nil {
		s.logger.Warn("MCP chat: turn failed", "session_id", sessionID, "err", err)
		return ChatResult{}, fmt.Errorf("turn failed: %w", err)
	}

	reply, _ := final.Last()
	turns := 0
	for _, msg := range final.Transcript() {
		if msg.Role == domain.RoleUser {
			turns++
		}
	}
	return ChatResult{
		SessionID: sessionID,
		Reply:     reply.Content,
		Turns:     turns,
		Metadata:  final.Metadata(),
	}, nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := s.svc.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	data, err := session.Export(id, state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// graphDescription is the JSON body of the graph resource.
type graphDescription struct {
	Entry string           `json:"entry"`
	Nodes []string         `json:"nodes"`
	Edges []graph.EdgeInfo `json:"edges"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Conversation Graph",
		mcp.WithResourceDescription("Nodes and edges of the conversation graph"),
		mcp.WithMIMEType("application/json"),
	), s.handleGraphResource)

	s.mcpServer.AddResource(mcp.NewResource(GraphMermaidURI, "Conversation Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphMermaidURI,
				MIMEType: "text/plain",
				Text:     s.svc.Graph().Mermaid(),
			},
		}, nil
	})
}

func (s *Server) handleGraphResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	g := s.svc.Graph()
	data, err := json.Marshal(graphDescription{Entry: g.Entry(), Nodes: g.Nodes(), Edges: g.Edges()})
	if err != nil {
		return nil, fmt.Errorf("failed to describe graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
