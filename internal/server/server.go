// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and owns the resources that must be released on shutdown (the
// database pool and the PDF renderer).
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  ├─ sqldb.DB ───────────────┬─ LedgerService ─┬─ LedgerHandler
//	  │                          │                 └─ AuthService ─ AuthHandler
//	  ├─ auth.TokenService ──────┘
//	  ├─ auth.GoogleProvider ────── AuthService
//	  ├─ llm.OpenAI ─────────────── GenerationService ─ GenerateHandler
//	  └─ renderer (local|docker) ── ExportService ───── ExportHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/config"
	"github.com/sakif/geniuspost/internal/document"
	"github.com/sakif/geniuspost/internal/handler"
	"github.com/sakif/geniuspost/internal/llm"
	"github.com/sakif/geniuspost/internal/middleware"
	"github.com/sakif/geniuspost/internal/renderer"
	"github.com/sakif/geniuspost/internal/renderer/docker"
	"github.com/sakif/geniuspost/internal/repository/sqldb"
	"github.com/sakif/geniuspost/internal/service"
)

// Server timeouts. WriteTimeout bounds ordinary responses; the stream
// handler clears its own write deadline.
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 120 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqldb.DB
	renderer renderer.Renderer
	tokens   *auth.TokenService
}

// New creates a Server from cfg. Nothing listens until Start is called.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqldb.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Info("database ready")

	tokens, err := auth.NewTokenService(cfg.SecretKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	// === PDF RENDERER ===
	r, err := newRenderer(cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating pdf renderer: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		renderer: r,
		tokens:   tokens,
	}

	if err := s.setupRoutes(); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// newRenderer picks the PDF backend. A local engine that is not installed
// does not stop the server: exports fail until it is, and the problem is
// logged now rather than at the first request.
func newRenderer(cfg config.Config, logger *slog.Logger) (renderer.Renderer, error) {
	fonts := document.NewFontSet(cfg.FontDir)
	if missing := fonts.Missing(); len(missing) > 0 {
		logger.Warn("pdf fonts missing, the engine will substitute system fonts",
			slog.String("dir", cfg.FontDir),
			slog.Any("files", missing),
		)
	}

	var r renderer.Renderer
	switch cfg.PDFRenderer {
	case config.RendererDocker:
		dcfg := docker.DefaultConfig()
		dcfg.Image = cfg.PDFDockerImage
		dcfg.PoolSize = cfg.PDFDockerPoolSize
		dcfg.WorkDir = cfg.PDFWorkDir
		dcfg.FontDir = cfg.FontDir
		dr, err := docker.New(dcfg, logger)
		if err != nil {
			return nil, err
		}
		r = dr
	default:
		r = renderer.NewWeasyPrint(cfg.WeasyPrintBin, cfg.PDFWorkDir, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Ready(ctx); err != nil {
		logger.Error("pdf renderer not ready, exports will fail",
			slog.String("renderer", cfg.PDFRenderer),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("pdf renderer ready", slog.String("renderer", cfg.PDFRenderer))
	}
	return r, nil
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                       → landing page
//	GET  /pricing                → pricing page
//	GET  /geniuspost             → authoring page          [session]
//	GET  /login                  → redirect to Google
//	GET  /authorize              → OAuth callback
//	GET  /logout                 → clear session            [session]
//	POST /generate               → completion (JSON)
//	POST /generate-stream        → completion (SSE)
//	POST /generate-pdf           → PDF export (JSON, base64)
//	POST /track_action           → bump usage counter       [session]
//	POST /submit_feedback        → append feedback          [session]
//	GET  /check_feedback_status  → {has_submitted}          [session]
//	GET  /static/*               → static files
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflights for cross-site API callers
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(corsOptions(s.config.CORSAllowedOrigins)))

	// === Static Files ===
	// GET /static/css/style.css → serves {StaticDir}/css/style.css
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Services ===
	llmClient, err := llm.NewOpenAI(llm.Options{
		BaseURL:      s.config.LLMBaseURL,
		APIKey:       s.config.LLMAPIKey,
		Organization: s.config.LLMOrg,
		Project:      s.config.LLMProject,
	})
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	google := auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleRedirectURI)
	fonts := document.NewFontSet(s.config.FontDir)

	ledgerService := service.NewLedgerService(s.db, s.db, s.logger)
	authService := service.NewAuthService(google, s.tokens, s.db, ledgerService, s.logger)
	generationService := service.NewGenerationService(llmClient, s.logger)
	exportService := service.NewExportService(s.renderer, fonts, s.logger)

	// === Handlers ===
	pageHandler, err := handler.NewPageHandler(s.config.TemplateDir, s.db, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	authHandler := handler.NewAuthHandler(authService, s.config.SecureCookies(), s.logger)
	generateHandler := handler.NewGenerateHandler(generationService, s.logger)
	exportHandler := handler.NewExportHandler(exportService, s.logger)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, s.logger)

	// === Public routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.LoadSession(s.tokens))
		r.Get("/", pageHandler.HandleHome)
		r.Get("/pricing", pageHandler.HandlePricing)
	})

	s.router.Get("/login", authHandler.HandleLogin)
	s.router.Get("/authorize", authHandler.HandleAuthorize)

	s.router.Post("/generate", generateHandler.HandleGenerate)
	s.router.Post("/generate-stream", generateHandler.HandleStream)
	s.router.Post("/generate-pdf", exportHandler.HandleExport)

	// === Session routes ===
	// Anonymous requests are redirected to /login?next=<path>.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(s.tokens))
		r.Get("/geniuspost", pageHandler.HandleAuthoring)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/track_action", ledgerHandler.HandleTrackAction)
		r.Post("/submit_feedback", ledgerHandler.HandleSubmitFeedback)
		r.Get("/check_feedback_status", ledgerHandler.HandleFeedbackStatus)
	})

	return nil
}

// corsOptions allows cross-site calls from origins. A wildcard cannot be
// combined with cookies, so credentials are only allowed for explicit
// origins.
func corsOptions(origins []string) cors.Options {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// close releases the renderer and the database.
func (s *Server) close() {
	if err := s.renderer.Close(); err != nil {
		s.logger.Warn("closing renderer", slog.String("error", err.Error()))
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database", slog.String("error", err.Error()))
	}
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests (including streams) to finish (30s timeout)
// 3. Stop the renderer (removes pooled containers) and close the database
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("renderer", s.config.PDFRenderer),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
