package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sha1n/mcp-prompt-server-go/internal/app"
	"github.com/sha1n/mcp-prompt-server-go/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mcp-prompts",
		Short:        "MCP server exposing prompt templates as tools",
		Long:         `mcp-prompts loads prompt template files from a directory and serves each one as an MCP tool over stdio, WebSocket, or both.`,
		Version:      app.ServerVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			settings, err := config.Load(v)
			if err != nil {
				return err
			}

			logger, err := app.NewLogger(cmd.ErrOrStderr(), settings.LogLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := app.New(ctx, settings)
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			defer cleanup()

			slog.Info("Starting server", "mode", settings.Mode, "prompts_dir", settings.PromptsDir, "prompts", a.Registry.Current().Len())
			if err := a.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				slog.Error("Server stopped with error", "error", err)
				return err
			}
			slog.Info("Server stopped")
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}
