// Package server exposes taxonomy management, case upload, categorization
// and export over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fjacquet/case-categorizer/internal/exporter"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
	"fjacquet/case-categorizer/internal/store"
)

// HeaderSkippedRows carries the number of input rows a categorization run
// skipped for missing required fields.
const HeaderSkippedRows = "X-Skipped-Rows"

const (
	defaultMaxUploadBytes = 32 << 20
	shutdownTimeout       = 10 * time.Second
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server routes HTTP requests to the categorization service.
type Server struct {
	router     *chi.Mux
	service    *pipeline.Service
	taxonomies store.Taxonomies
	exporter   *exporter.Exporter
	opts       Options
	logger     logging.Logger
}

// New creates a Server with all routes registered.
func New(service *pipeline.Service, taxonomies store.Taxonomies, exp *exporter.Exporter, opts Options, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if exp == nil {
		exp = exporter.NewExporter(',', logger)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		router:     chi.NewRouter(),
		service:    service,
		taxonomies: taxonomies,
		exporter:   exp,
		opts:       opts,
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(s.cors)

	s.router.Get("/", s.handleRoot)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/categories", s.handleListTaxonomy(models.KindCategories))
	s.router.Post("/categories", s.handleReplaceTaxonomy(models.KindCategories))
	s.router.Get("/resolutions", s.handleListTaxonomy(models.KindResolutions))
	s.router.Post("/resolutions", s.handleReplaceTaxonomy(models.KindResolutions))

	s.router.Post("/upload", s.handleUpload)
	s.router.Post("/categorize-cases", s.handleCategorize)
	s.router.Post("/export", s.handleExport)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", logging.Field{Key: "address", Value: addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			logging.Field{Key: "method", Value: r.Method},
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: logging.FieldStatus, Value: ww.Status()},
			logging.Field{Key: "request_id", Value: middleware.GetReqID(r.Context())},
			logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	})
}

// cors allows the configured browser origins, with credentials.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !slices.Contains(s.opts.AllowedOrigins, origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Expose-Headers", HeaderSkippedRows+", Content-Disposition")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			} else {
				h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Accept"}, ", "))
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
