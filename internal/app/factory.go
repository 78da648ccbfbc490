package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sha1n/mcp-prompt-server-go/internal/config"
	"github.com/sha1n/mcp-prompt-server-go/internal/dispatch"
	"github.com/sha1n/mcp-prompt-server-go/internal/mcp"
	"github.com/sha1n/mcp-prompt-server-go/internal/prompts"
	"github.com/sha1n/mcp-prompt-server-go/internal/search"
	"github.com/sha1n/mcp-prompt-server-go/internal/watch"
)

// ServerName and ServerVersion identify the server to MCP clients
const (
	ServerName    = "mcp-prompt-server"
	ServerVersion = "1.0.0"
)

// App holds the wired server components
type App struct {
	Settings   *config.Settings
	Registry   *prompts.Registry
	Dispatcher *dispatch.Dispatcher
	MCPServer  *server.MCPServer

	search  *search.Index
	watcher *watch.Watcher
}

// New initializes the core components and performs the initial prompt load.
// A failing initial load leaves an empty registry rather than aborting.
func New(ctx context.Context, settings *config.Settings) (*App, func(), error) {
	registry := prompts.NewRegistry(
		prompts.NewDirLoader(settings.PromptsDir),
		prompts.WithReservedNames(dispatch.ReservedNames()...),
	)

	index, err := search.NewIndex(settings.Search.MaxResults)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize search: %w", err)
	}
	registry.OnInstall(func(s *prompts.Snapshot) {
		if err := index.Rebuild(s); err != nil {
			slog.Error("Failed to index prompts", "error", err)
		}
	})

	dispatcher := dispatch.New(registry, dispatch.WithSearcher(index))
	mcpServer := mcp.CreateServer(mcp.ServerInfo{Name: ServerName, Version: ServerVersion}, dispatcher, registry)

	if _, err := registry.Reload(ctx); err != nil {
		slog.Warn("Initial prompt load failed, starting with no prompts", "dir", settings.PromptsDir, "error", err)
		registry.Load(nil)
	}

	a := &App{
		Settings:   settings,
		Registry:   registry,
		Dispatcher: dispatcher,
		MCPServer:  mcpServer,
		search:     index,
	}

	if settings.Watch.Enabled {
		w, err := watch.New(settings.PromptsDir, registry, time.Duration(settings.Watch.DebounceMs)*time.Millisecond)
		if err != nil {
			index.Close()
			return nil, nil, err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Close()
			index.Close()
			return nil, nil, err
		}
		a.watcher = w
	}

	cleanup := func() {
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		index.Close()
	}

	return a, cleanup, nil
}
