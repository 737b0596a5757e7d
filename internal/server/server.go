// Package server exposes the document assistant as a themed web UI.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/export"
	"github.com/joseph-ayodele/doc-assistant/internal/pipeline"
)

//go:embed templates/*.html static/*.css
var assets embed.FS

type Options struct {
	Theme       string // "dark" or "light"
	MaxUploadMB int64
}

type Server struct {
	dispatch *pipeline.Dispatcher
	exporter *export.Service
	health   *Health
	tmpl     *template.Template
	md       goldmark.Markdown
	opts     Options
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New builds the HTTP surface. health may be nil, in which case /healthz always
// reports ok.
func New(d *pipeline.Dispatcher, exporter *export.Service, health *Health, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Theme == "" {
		opts.Theme = "dark"
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 25
	}
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		dispatch: d,
		exporter: exporter,
		health:   health,
		tmpl:     tmpl,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		opts:     opts,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return err
	}
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("GET /s/{id}", s.handleSession)
	s.mux.HandleFunc("POST /s/{id}/summarize", s.handleSummarize)
	s.mux.HandleFunc("POST /s/{id}/ask", s.handleAsk)
	s.mux.HandleFunc("POST /s/{id}/visualize", s.handleVisualize)
	s.mux.HandleFunc("POST /s/{id}/speak", s.handleSpeak)
	s.mux.HandleFunc("POST /s/{id}/imagine", s.handleImagine)
	s.mux.HandleFunc("GET /s/{id}/chart.png", s.handleChart)
	s.mux.HandleFunc("GET /s/{id}/table.xlsx", s.handleTable)
	s.mux.HandleFunc("GET /s/{id}/audio", s.handleAudio)
	s.mux.HandleFunc("GET /s/{id}/image", s.handleImage)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	return nil
}

// Handler returns the mux wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(common.WithRequestID(r.Context(), reqID)))

		level := slog.LevelInfo
		if r.URL.Path == "/healthz" || r.URL.Path == "/static/style.css" {
			level = slog.LevelDebug
		}
		s.logger.Log(r.Context(), level, "http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
