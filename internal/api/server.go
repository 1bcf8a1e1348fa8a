package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/id/uuid"
	"github.com/JakeFAU/stayscout/internal/metrics"
	"github.com/JakeFAU/stayscout/internal/toolerr"
	"github.com/JakeFAU/stayscout/internal/tools"
)

const (
	restTimeout  = 60 * time.Second
	maxArgsBytes = 1 << 20
)

// Dispatcher is the tool core behind the REST routes.
type Dispatcher interface {
	ListTools() []tools.Descriptor
	CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// RobotsStatus reports robots.txt cache state for readiness.
type RobotsStatus interface {
	Enforcing() bool
	Loaded() bool
}

// Endpoints lists the routes advertised by the 404 handler and startup log.
var Endpoints = []string{
	"GET /healthz",
	"GET /health",
	"GET /readyz",
	"GET /metrics",
	"POST /mcp",
	"GET /v1/tools",
	"POST /v1/tools/{name}",
}

// Server wires HTTP handlers to the tool dispatcher and MCP transport.
type Server struct {
	router     chi.Router
	dispatcher Dispatcher
	robots     RobotsStatus
	version    string
	ids        uuid.Generator
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes. mcpHandler may be
// nil, in which case /mcp is not mounted.
func NewServer(
	dispatcher Dispatcher,
	mcpHandler http.Handler,
	robots RobotsStatus,
	version string,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		dispatcher: dispatcher,
		robots:     robots,
		version:    version,
		ids:        uuid.New(),
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/health", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())
	if mcpHandler != nil {
		// Streaming responses must not sit behind the timeout handler.
		r.Handle("/mcp", mcpHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(restTimeout))
		r.Get("/tools", s.listTools)
		r.Post("/tools/{name}", s.callTool)
	})
	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.methodNotAllowed)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": s.version})
}

// readyz always reports ready: a missing robots.txt fails open, so it never
// blocks serving.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	robots := map[string]bool{"enforcing": false, "loaded": false}
	if s.robots != nil {
		robots["enforcing"] = s.robots.Enforcing()
		robots["loaded"] = s.robots.Loaded()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "robots": robots})
}

func (s *Server) listTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.dispatcher.ListTools()})
}

func (s *Server) callTool(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArguments(r.Body)
	if err != nil {
		writeToolError(w, toolerr.InvalidArguments("%v", err))
		return
	}
	res, err := s.dispatcher.CallTool(r.Context(), chi.URLParam(r, "name"), args)
	if err != nil {
		writeToolError(w, toolerr.As(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeArguments reads a JSON object body. An empty body means no arguments.
func decodeArguments(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxArgsBytes))
	dec.UseNumber()
	args := map[string]any{}
	if err := dec.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":     "not found",
		"endpoints": Endpoints,
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = s.ids.MustID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.String("request_id", RequestID(r.Context())),
					zap.Any("error", rec),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

// RequestID returns the request ID stored by the middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeToolError(w http.ResponseWriter, err *toolerr.Error) {
	writeJSON(w, err.HTTPStatus(), map[string]any{
		"error": err.Message,
		"kind":  err.Kind,
	})
}
