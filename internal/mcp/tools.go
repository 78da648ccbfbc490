package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sha1n/mcp-prompt-server-go/internal/dispatch"
)

// NewTool converts a dispatcher tool description into an MCP tool with
// string parameters
func NewTool(d dispatch.ToolDescription) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, a := range d.Arguments {
		props := []mcp.PropertyOption{mcp.Description(a.Description)}
		if a.Required {
			props = append(props, mcp.Required())
		}
		opts = append(opts, mcp.WithString(a.Name, props...))
	}
	return mcp.NewTool(d.Name, opts...)
}

// NewToolHandler creates the handler invoking the named tool through the dispatcher
func NewToolHandler(dispatcher *dispatch.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, argErr := dispatch.StringArguments(req.GetArguments())
		if argErr != nil {
			slog.Warn("Invalid tool arguments", "tool", name, "error", argErr)
			return mcp.NewToolResultError(argErr.Error()), nil
		}

		slog.Info("Tool request", "tool", name, "transport", "stdio")

		res := dispatcher.Invoke(ctx, name, args)
		if res.IsError() {
			return mcp.NewToolResultError(res.Err.Error()), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}
