package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/sha1n/mcp-prompt-server-go/internal/mcp"
	"github.com/sha1n/mcp-prompt-server-go/internal/ws"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Run serves the configured transports until ctx is cancelled, the stdio
// input is closed, or a transport fails. The WebSocket listener is bound
// before anything is served so that bind failures are reported immediately.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	return a.run(ctx, in, out, nil)
}

func (a *App) run(ctx context.Context, in io.Reader, out io.Writer, bound chan<- net.Addr) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if a.Settings.ServesWS() {
		wsServer := ws.NewServer(a.Dispatcher, ws.Options{
			Path:     a.Settings.WSPath,
			CertFile: a.Settings.CertFile,
			KeyFile:  a.Settings.KeyFile,
		})

		addr, err := wsServer.Listen(a.Settings.Addr())
		if err != nil {
			return err
		}
		if bound != nil {
			bound <- addr
		}

		g.Go(wsServer.Serve)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return wsServer.Shutdown(shutdownCtx)
		})
	}

	if a.Settings.ServesStdio() {
		g.Go(func() error {
			// stdio ending means the client is gone; stop the other transports too
			defer cancel()
			err := mcp.ServeStdio(gctx, a.MCPServer, in, out)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("Stdio transport closed")
			return nil
		})
	}

	return g.Wait()
}
