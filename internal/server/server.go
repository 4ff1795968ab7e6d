package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/chat"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/loader"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/observability"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/portfolio"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/proxy"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/server/middleware"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/server/ratelimit"
)

// DefaultTurnTimeout bounds one chat turn, including inference.
const DefaultTurnTimeout = 30 * time.Second

var validate = validator.New()

// StatusSource exposes the model loader state. *loader.Loader implements it.
type StatusSource interface {
	Status() loader.Status
	Subscribe() (<-chan loader.Status, func())
}

// MetricsSource exposes assistant counters. *observability.Metrics implements it.
type MetricsSource interface {
	Snapshot() observability.Snapshot
}

// Config holds server configuration
type Config struct {
	Addr          string
	AllowedOrigin string
	TurnTimeout   time.Duration
	// StreamKeepAlive is the interval between SSE comments; 0 uses 15s.
	StreamKeepAlive time.Duration
}

// Deps are the components the API serves. Gateway, Loader, Sessions, Facts
// and Tokens are required; Metrics and Limiter may be nil.
type Deps struct {
	Gateway  http.Handler
	Loader   StatusSource
	Sessions *chat.Manager
	Facts    *portfolio.Store
	Tokens   *TokenService
	Metrics  MetricsSource
	Limiter  *ratelimit.Limiter
	Logger   *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	auth       func(http.Handler) http.Handler
	handler    http.Handler
	httpServer *http.Server
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.StreamKeepAlive <= 0 {
		cfg.StreamKeepAlive = 15 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		auth:   middleware.SessionAuth(deps.Tokens.AsTokenValidator(), "id"),
	}

	mux := http.NewServeMux()
	mux.Handle(proxy.RoutePrefix+"{path...}", deps.Gateway)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/assistant/status", s.handleStatus)
	mux.HandleFunc("GET /api/assistant/status/stream", s.handleStatusStream)
	mux.HandleFunc("GET /api/assistant/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/knowledge/passage", s.handlePassage)

	mux.HandleFunc("POST /api/chat/sessions", s.handleCreateSession)
	mux.Handle("GET /api/chat/sessions/{id}/messages", s.protect(s.handleListMessages))
	mux.Handle("POST /api/chat/sessions/{id}/messages", s.protect(s.handleSubmit))
	mux.Handle("PUT /api/chat/sessions/{id}/ui", s.protect(s.handleSetUI))
	mux.Handle("DELETE /api/chat/sessions/{id}", s.protect(s.handleDeleteSession))

	var handler http.Handler = s.withLogging(s.withCORS(mux))
	if deps.Limiter != nil {
		handler = s.withRateLimit(handler)
	}
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: the status stream and proxied shards are long-lived.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.deps.Limiter != nil {
		s.deps.Limiter.Stop()
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.auth(h)
}

// withCORS adds CORS headers to the API routes. The asset proxy sets its own.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, proxy.RoutePrefix) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if s.cfg.AllowedOrigin != "*" {
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging. It forwards
// Flush so streaming handlers keep working behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		allowed, info := s.deps.Limiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the IP address from RemoteAddr. Forwarded headers are
// ignored since they are client-controlled without a trusted proxy in front.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := max(int(info.RetryAfter.Seconds()), 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFrom writes err with the status HTTPStatus maps it to.
func (s *Server) errorFrom(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}
