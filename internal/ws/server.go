package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sha1n/mcp-prompt-server-go/internal/dispatch"
)

// DefaultPath is the endpoint WebSocket clients connect to
const DefaultPath = "/ws"

const writeTimeout = 10 * time.Second

// Options configures the WebSocket server
type Options struct {
	Path     string
	CertFile string
	KeyFile  string
}

// Server serves the dispatcher to many WebSocket clients. Each connection
// handles its frames one at a time, in arrival order.
type Server struct {
	dispatcher *dispatch.Dispatcher
	opts       Options
	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a WebSocket server for the dispatcher
func NewServer(dispatcher *dispatch.Dispatcher, opts Options) *Server {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}

	s := &Server{
		dispatcher: dispatcher,
		opts:       opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(opts.Path, s.handleUpgrade)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the server address. Binding errors are returned here so that
// startup fails before any request is served.
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve accepts connections until Shutdown is called
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	var err error
	if s.opts.CertFile != "" && s.opts.KeyFile != "" {
		slog.Info("MCP server running in WebSocket mode", "addr", s.listener.Addr().String(), "path", s.opts.Path, "tls", true)
		err = s.httpServer.ServeTLS(s.listener, s.opts.CertFile, s.opts.KeyFile)
	} else {
		slog.Info("MCP server running in WebSocket mode", "addr", s.listener.Addr().String(), "path", s.opts.Path)
		err = s.httpServer.Serve(s.listener)
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, closes open ones and waits for their
// handlers to return
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	slog.Info("New WebSocket connection established", "remote", r.RemoteAddr)
	s.serveConn(r.Context(), conn)
	slog.Info("WebSocket connection closed", "remote", r.RemoteAddr)
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.Warn("WebSocket read failed", "error", err)
			}
			return
		}

		resp := HandleFrame(ctx, s.dispatcher, data)

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			slog.Warn("WebSocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	s.wg.Done()
}
