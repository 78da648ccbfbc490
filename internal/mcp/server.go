package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sha1n/mcp-prompt-server-go/internal/dispatch"
	"github.com/sha1n/mcp-prompt-server-go/internal/prompts"
)

// ServerInfo identifies the server to MCP clients
type ServerInfo struct {
	Name    string
	Version string
}

// CreateServer creates the MCP server and keeps its tool set in sync with
// the registry: every installed snapshot replaces the advertised tools.
func CreateServer(info ServerInfo, dispatcher *dispatch.Dispatcher, registry *prompts.Registry) *server.MCPServer {
	s := server.NewMCPServer(
		info.Name,
		info.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	SyncTools(s, dispatcher, registry.Current())
	registry.OnInstall(func(snapshot *prompts.Snapshot) {
		SyncTools(s, dispatcher, snapshot)
	})

	return s
}

// SyncTools registers one tool per prompt in the snapshot plus the built-in tools
func SyncTools(s *server.MCPServer, dispatcher *dispatch.Dispatcher, snapshot *prompts.Snapshot) {
	descriptions := dispatcher.Tools(snapshot)

	tools := make([]server.ServerTool, len(descriptions))
	for i, d := range descriptions {
		tools[i] = server.ServerTool{
			Tool:    NewTool(d),
			Handler: NewToolHandler(dispatcher, d.Name),
		}
	}
	s.SetTools(tools...)

	slog.Info("Registered tools", "count", len(tools), "prompts", snapshot.Len())
}

// ServeStdio serves the MCP protocol on the given streams until ctx is done
// or the input is closed. Requests are handled one at a time.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	// one worker keeps tool calls answered in arrival order
	server.WithWorkerPoolSize(1)(stdio)
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))

	slog.Info("MCP server running in stdio mode")
	return stdio.Listen(ctx, in, out)
}
