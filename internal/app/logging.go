package app

import (
	"io"
	"log/slog"

	"github.com/sha1n/mcp-prompt-server-go/internal/config"
)

// NewLogger creates the process logger. Logs must never go to stdout, which
// carries the stdio protocol.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	l, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
