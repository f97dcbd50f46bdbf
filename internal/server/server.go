// Package server implements the HTTP API and MCP server for colorgorical serve.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wethinkt/go-colorgorical/internal/applog"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int
	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty disables CORS.
	CORSOrigin string
	// MCP mounts the MCP SSE endpoint at /mcp.
	MCP bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:       "localhost",
		Port:       8888,
		CORSOrigin: "*",
		MCP:        true,
	}
}

// HTTPServer serves the REST API, metrics and, optionally, MCP over SSE.
type HTTPServer struct {
	service *Service
	mcp     *MCPServer
	router  chi.Router
	config  Config
}

// NewHTTPServer creates a new HTTP server for svc.
func NewHTTPServer(svc *Service, config Config) *HTTPServer {
	s := &HTTPServer{
		service: svc,
		config:  config,
	}
	if config.MCP {
		s.mcp = NewMCPServer(svc)
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *HTTPServer) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware(s.config.CORSOrigin))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/palettes", s.handleMakePalette)
		r.Post("/palettes/score", s.handleScorePalette)
		r.Get("/reference", s.handleGetReference)
		r.Get("/convert", s.handleConvert)
		r.Post("/hues/normalize", s.handleNormalizeHues)
		r.Get("/history", s.handleGetHistory)
	})

	r.Handle("/metrics", promhttp.Handler())

	if s.mcp != nil {
		r.Handle("/mcp", mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return s.mcp.Server() }, nil))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Colorgorical</title></head>
<body>
<h1>Colorgorical</h1>
<p>Build palettes with <code>POST /api/v1/palettes</code>, score them with <code>POST /api/v1/palettes/score</code>.</p>
<p>Reference palettes: <a href="/api/v1/reference">/api/v1/reference</a></p>
<p>Metrics: <a href="/metrics">/metrics</a></p>
</body>
</html>`))
	})

	return r
}

// Router returns the chi router.
func (s *HTTPServer) Router() chi.Router {
	return s.router
}

// Addr returns the server address.
func (s *HTTPServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Port returns the listening port. It is only meaningful for port 0 after
// ListenAndServe has bound the socket.
func (s *HTTPServer) Port() int {
	return s.config.Port
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
// ready, when non-nil, is called with the bound address before serving.
func (s *HTTPServer) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	// Update port if it was auto-assigned
	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	applog.Log.Info("HTTP server listening", "addr", s.Addr(), "mcp", s.mcp != nil)
	if ready != nil {
		ready(s.Addr())
	}
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// corsMiddleware adds CORS headers for browser clients. An empty origin
// leaves responses untouched.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
