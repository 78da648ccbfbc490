package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sha1n/mcp-prompt-server-go/internal/dispatch"
)

const jsonRPCVersion = "2.0"

// Request is one inbound frame. The id is echoed back verbatim.
type Request struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments map[string]any  `json:"arguments"`
}

// Response is one outbound frame
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  *Result         `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Result carries the rendered text of a successful call
type Result struct {
	Content []Content `json:"content"`
}

// Content is a single typed content block
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func textResponse(id json.RawMessage, text string) Response {
	return Response{
		JSONRPC: jsonRPCVersion,
		Result:  &Result{Content: []Content{{Type: "text", Text: text}}},
		ID:      id,
	}
}

func errorResponse(id json.RawMessage, err *dispatch.Error) Response {
	return Response{
		JSONRPC: jsonRPCVersion,
		Error:   &RPCError{Code: err.Code, Message: err.Message},
		ID:      id,
	}
}

// HandleFrame decodes one frame, dispatches it and builds the response.
// A frame that cannot be decoded yields a parse error without an id.
func HandleFrame(ctx context.Context, dispatcher *dispatch.Dispatcher, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("Failed to parse WebSocket message", "error", err)
		return errorResponse(nil, dispatch.NewError(dispatch.CodeParseError, "Parse error: %v", err))
	}

	args, argErr := dispatch.StringArguments(req.Arguments)
	if argErr != nil {
		return errorResponse(req.ID, argErr)
	}

	slog.Info("Tool request", "tool", req.Name, "transport", "ws")

	res := dispatcher.Invoke(ctx, req.Name, args)
	if res.IsError() {
		return errorResponse(req.ID, res.Err)
	}
	return textResponse(req.ID, res.Text)
}
