package dispatch

import "fmt"

// JSON-RPC error codes shared by every transport binding
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeProcessing     = -32000
)

// Error is a dispatch failure carrying a JSON-RPC error code
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// NewError creates an Error with a formatted message
func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound is returned for tool names absent from the current snapshot
func NotFound(name string) *Error {
	return NewError(CodeMethodNotFound, "prompt %q not found", name)
}
