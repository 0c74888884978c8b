package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Paths served in HTTP mode.
const (
	EndpointPath = "/mcp"
	HealthPath   = "/healthz"
)

const shutdownTimeout = 5 * time.Second

// Server exposes playbook search, recommendations and sync as MCP tools.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers the tools and resources the ports allow.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "playbookbot", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the HTTP handler: the streamable MCP endpoint plus a
// health check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(EndpointPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"version": Version,
			"sync":    s.ports.Sync != nil,
		})
	})
	return mux
}

// RunHTTP serves on ln until ctx is cancelled, then drains open requests.
func (s *Server) RunHTTP(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("MCP server listening on %s", ln.Addr())
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// limit runs fn under the quota of configKey for the calling session.
func (s *Server) limit(ctx context.Context, session *mcp.ServerSession, configKey string, fn func(context.Context) error) error {
	if s.ports.Limiter == nil {
		return fn(ctx)
	}
	return s.ports.Limiter.Do(ctx, configKey, callerID(session), fn)
}

// callerID identifies the session for rate limiting. Stdio sessions have
// no ID and share one quota.
func callerID(session *mcp.ServerSession) string {
	if session != nil {
		if id := session.ID(); id != "" {
			return "mcp:" + id
		}
	}
	return "mcp"
}
