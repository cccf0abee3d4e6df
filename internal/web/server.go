package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/ops"
)

// Deps are the collaborators the HTTP server routes to.
type Deps struct {
	DB        *sql.DB
	Generator ops.Generator

	// Events serves POST /slack/events; nil leaves the route unregistered
	Events http.Handler
}

// NewServer creates and configures the HTTP server for the Mimic API.
func NewServer(deps Deps, version, bind string, port int, logger *zap.Logger) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handlers{
		db:      deps.DB,
		gen:     deps.Generator,
		version: version,
		logger:  logger,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("POST /api/message", h.HandleStore)
	mux.HandleFunc("GET /api/messages", h.HandleGenerate)
	mux.HandleFunc("GET /api/authors", h.HandleAuthors)
	mux.HandleFunc("POST /api/haiku", h.HandleHaiku)
	if deps.Events != nil {
		mux.Handle("POST /slack/events", deps.Events)
	}

	handler := requestID(accessLog(logger, securityHeaders(mux)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const requestIDKey ctxKey = iota

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-Id"

// requestID tags each request with an ID, reusing a caller-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// accessLog logs one line per request.
func accessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
// drain, if non-nil, runs after the listener stops so background work
// (webhook events already acked) can finish.
func Run(srv *http.Server, logger *zap.Logger, drain func()) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("mimic API listening", zap.String("addr", srv.Addr))

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(ctx)
		if drain != nil {
			drain()
		}
		return err
	}
}
