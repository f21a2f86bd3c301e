package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ebraholidays/voyager/internal/handler"
	"github.com/ebraholidays/voyager/internal/server/middleware"
	"github.com/ebraholidays/voyager/internal/service"
	"github.com/ebraholidays/voyager/internal/store"
	"github.com/ebraholidays/voyager/internal/upload"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	UploadDir       string // filesystem root served under /uploads
	Version         string

	// Per-IP requests per minute on the endpoints anonymous callers can
	// write through (login, public enquiry form).
	PublicWriteLimit int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             5000,
		ShutdownTimeout:  30 * time.Second,
		CORSOrigins:      []string{"*"},
		UploadDir:        "uploads",
		Version:          "dev",
		PublicWriteLimit: 20,
	}
}

// Server is the top-level HTTP server for the site backend. It owns the Chi
// router, the store, the auth service, and the upload manager.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	uploads    *upload.Manager
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, uploads *upload.Manager, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		authSvc: authSvc,
		uploads: uploads,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- Service banner ---
	r.Get("/", s.handleRoot)

	// --- Static serving of uploaded images ---
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		cacheControl(http.FileServer(http.Dir(s.cfg.UploadDir)))))

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		authHandler := handler.NewAuthHandler(s.store, s.authSvc)
		blogHandler := handler.NewBlogHandler(s.store, s.uploads, s.logger)
		enquiryHandler := handler.NewEnquiryHandler(s.store)

		// Public endpoints. The two anonymous write paths are rate limited.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.PublicWriteLimit))
			r.Post("/admin/setup", authHandler.Setup)
			r.Post("/admin/login", authHandler.Login)
			r.Post("/enquiries", enquiryHandler.Create)
		})
		r.Get("/blogs", blogHandler.ListPublic)
		r.Get("/blogs/{id}", blogHandler.GetPublic)

		// Admin endpoints, all behind the auth gate.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.authSvc))

			r.Put("/admin/change-password", authHandler.ChangePassword)
			r.Post("/admin/logout", authHandler.Logout)

			r.Get("/admin/blogs", blogHandler.ListAdmin)
			r.Post("/admin/blogs", blogHandler.Create)
			r.Get("/admin/blogs/{id}", blogHandler.GetAdmin)
			r.Put("/admin/blogs/{id}", blogHandler.Update)
			r.Delete("/admin/blogs/{id}", blogHandler.Delete)

			r.Get("/admin/enquiries", enquiryHandler.List)
			r.Get("/admin/enquiries/stats", enquiryHandler.Stats)
			r.Put("/admin/enquiries/{id}/status", enquiryHandler.UpdateStatus)
			r.Delete("/admin/enquiries/{id}", enquiryHandler.Delete)
		})
	})

	s.router = r
}

// cacheControl lets browsers cache uploaded images for an hour.
func cacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// handleRoot reports the service identity, mirroring the site frontend's
// uptime check.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message":   "Welcome to Ebra Holidays Backend",
		"status":    "Running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.cfg.Version,
	})
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
