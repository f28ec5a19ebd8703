// Package server exposes the dispatcher and the creation listings over a
// JSON HTTP API.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/acme/autocert"

	"ai_creation_broker/creation"
	"ai_creation_broker/dispatch"
	"ai_creation_broker/identity"
)

// DefaultMaxUploadBytes bounds multipart bodies when Options leaves it zero.
const DefaultMaxUploadBytes = 10 << 20

// Authenticator resolves the Authorization header; *identity.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (identity.Principal, error)
}

// Store is the read side the listings and health check need.
type Store interface {
	creation.Store
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr string
	// TLSDomain enables Let's Encrypt certificates for that host.
	TLSDomain      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Server struct {
	dispatcher *dispatch.Dispatcher
	auth       Authenticator
	store      Store
	opts       Options
	logger     *slog.Logger
	started    time.Time
	http       *http.Server
}

func New(d *dispatch.Dispatcher, auth Authenticator, store Store, opts Options) (*Server, error) {
	if d == nil {
		return nil, errors.New("dispatcher required")
	}
	if auth == nil {
		return nil, errors.New("authenticator required")
	}
	if store == nil {
		return nil, errors.New("store required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		dispatcher: d,
		auth:       auth,
		store:      store,
		opts:       opts,
		logger:     opts.Logger,
		started:    time.Now(),
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ai/generate-article", s.authed(s.handleArticle))
	mux.HandleFunc("POST /api/ai/generate-blog-title", s.authed(s.handleBlogTitles))
	mux.HandleFunc("POST /api/ai/generate-image", s.authed(s.handleImage))
	mux.HandleFunc("POST /api/ai/remove-image-background", s.authed(s.handleBackground))
	mux.HandleFunc("POST /api/ai/remove-image-object", s.authed(s.handleObject))
	mux.HandleFunc("POST /api/ai/resume-review", s.authed(s.handleResume))
	mux.HandleFunc("GET /api/user/get-user-creations", s.authed(s.handleUserCreations))
	mux.HandleFunc("GET /api/user/get-published-creations", s.authed(s.handlePublishedCreations))
	mux.HandleFunc("GET /api/user/usage", s.authed(s.handleUsage))
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.logMiddleware(mux)
}

// Start serves until Shutdown. With a TLS domain it also runs the ACME
// HTTP challenge listener on :80.
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.opts.Addr, "tls_domain", s.opts.TLSDomain)
	if s.opts.TLSDomain != "" {
		m := &autocert.Manager{
			Cache:      autocert.DirCache(".autocert-cache"),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(s.opts.TLSDomain),
		}
		go func() {
			if err := http.ListenAndServe(":80", m.HTTPHandler(nil)); err != nil {
				s.logger.Error("acme challenge server stopped", "error", err)
			}
		}()
		s.http.TLSConfig = &tls.Config{GetCertificate: m.GetCertificate}
		return s.http.ListenAndServeTLS("", "")
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("graceful shutdown initiated")
	return s.http.Shutdown(ctx)
}

// --- Middleware ---

type ctxKey int

const loggerKey ctxKey = iota

// requestLogger returns the request-scoped logger set by logMiddleware.
func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return s.logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		logger := s.logger.With("request_id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, p identity.Principal)

func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
		switch {
		case err == nil:
			h(w, r, p)
		case errors.Is(err, identity.ErrMissingToken),
			errors.Is(err, identity.ErrInvalidToken),
			errors.Is(err, identity.ErrTokenExpired):
			writeJSONStatus(w, http.StatusUnauthorized, dispatch.Envelope{Message: "Not authenticated"})
		default:
			s.requestLogger(r).Error("authenticate", "error", err)
			writeJSONStatus(w, http.StatusServiceUnavailable, dispatch.Envelope{Message: msgInternal})
		}
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
