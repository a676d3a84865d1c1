// Package chi serves pagegraph analysis and stored graphs over HTTP using
// the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/pagegraph"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodySize limits the HTML accepted by POST /analyze.
const DefaultMaxBodySize = 10 * 1024 * 1024

// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
const ShutdownTimeout = 5 * time.Second

// Server exposes the analyzer and graph store as a JSON API.
//
//	GET    /health
//	POST   /analyze?url=&format=&save=
//	GET    /graphs?url=&offset=&limit=
//	GET    /graphs/{id}?format=
//	GET    /graphs/{id}/assessment
//	DELETE /graphs/{id}
type Server struct {
	analyzer    pagegraph.Analyzer
	graphs      pagegraph.GraphService
	exporters   map[string]pagegraph.Exporter
	logger      *slog.Logger
	maxBodySize int64
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithGraphService enables saving and the /graphs routes.
func WithGraphService(graphs pagegraph.GraphService) Option {
	return func(s *Server) {
		s.graphs = graphs
	}
}

// WithExporter registers an exporter under its Format name.
func WithExporter(e pagegraph.Exporter) Option {
	return func(s *Server) {
		s.exporters[e.Format()] = e
	}
}

// WithMaxBodySize sets the maximum accepted request body in bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		s.maxBodySize = n
	}
}

// NewServer creates a Server. The JSON format is always available.
func NewServer(analyzer pagegraph.Analyzer, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		analyzer:    analyzer,
		exporters:   map[string]pagegraph.Exporter{"json": &pagegraph.JSONExporter{}},
		logger:      logger,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
	r.Route("/graphs", func(r chi.Router) {
		r.Use(s.requireGraphs)
		r.Get("/", s.handleListGraphs)
		r.Get("/{id}", s.handleGetGraph)
		r.Get("/{id}/assessment", s.handleGetAssessment)
		r.Delete("/{id}", s.handleDeleteGraph)
	})
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe for an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := formatParam(q.Get("format"))
	if !s.knownFormat(format) {
		s.writeError(w, r, pagegraph.Errorf(pagegraph.EINVALID, "unknown format %q", format))
		return
	}
	save := q.Get("save") == "true"
	if save && s.graphs == nil {
		s.writeError(w, r, pagegraph.Errorf(pagegraph.EINVALID, "saving is not enabled"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, pagegraph.Errorf(pagegraph.EINVALID, "body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, err)
		return
	}

	g, err := s.analyzer.Analyze(r.Context(), string(body), q.Get("url"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if save {
		rec := &pagegraph.GraphRecord{URL: q.Get("url"), Graph: g}
		if err := s.graphs.CreateGraph(r.Context(), rec, string(body)); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Location", "/graphs/"+rec.ID)
		w.Header().Set("X-Graph-ID", rec.ID)
		status = http.StatusCreated
	}

	s.writeGraph(w, r, status, g, format)
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := pagegraph.GraphFilter{}
	if url := q.Get("url"); url != "" {
		filter.URL = &url
	}
	var err error
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeError(w, r, err)
		return
	}

	recs, err := s.graphs.FindGraphs(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]graphItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, newGraphItem(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"graphs": items})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	format := formatParam(r.URL.Query().Get("format"))
	if !s.knownFormat(format) {
		s.writeError(w, r, pagegraph.Errorf(pagegraph.EINVALID, "unknown format %q", format))
		return
	}

	rec, err := s.graphs.FindGraphByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeGraph(w, r, http.StatusOK, rec.Graph, format)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	rec, err := s.graphs.FindGraphByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":    pagegraph.Summarize(rec.Graph),
		"assessment": pagegraph.Assess(rec.Graph),
	})
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.graphs.DeleteGraph(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireGraphs rejects /graphs requests when no store is configured.
func (s *Server) requireGraphs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.graphs == nil {
			s.writeError(w, r, pagegraph.Errorf(pagegraph.ENOTFOUND, "graph storage is not enabled"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs one record per request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(begin),
		)
	})
}

func (s *Server) knownFormat(format string) bool {
	if format == "summary" {
		return true
	}
	_, ok := s.exporters[format]
	return ok
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, status int, g *pagegraph.Graph, format string) {
	if format == "summary" {
		writeJSON(w, status, map[string]any{
			"summary":    pagegraph.Summarize(g),
			"assessment": pagegraph.Assess(g),
		})
		return
	}

	exp := s.exporters[format]
	content, err := exp.Export(g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, content)
}

// writeError maps application error codes to HTTP status codes.
// Internal errors are logged and their details hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := pagegraph.ErrorCode(err), pagegraph.ErrorMessage(err)
	if code == pagegraph.EINTERNAL {
		s.logger.Error("http error",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	writeJSON(w, errorStatus(code), map[string]string{"error": message})
}

func errorStatus(code string) int {
	switch code {
	case pagegraph.EINVALID:
		return http.StatusBadRequest
	case pagegraph.ENOTFOUND:
		return http.StatusNotFound
	case pagegraph.ECONFLICT:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(format string) string {
	switch format {
	case "graphml":
		return "application/graphml+xml"
	case "jsonld":
		return "application/ld+json"
	}
	return "application/json"
}

func formatParam(v string) string {
	if v == "" {
		return "json"
	}
	return v
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, pagegraph.Errorf(pagegraph.EINVALID, "invalid number %q", v)
	}
	return n, nil
}

// graphItem is the list representation of a stored graph.
type graphItem struct {
	ID                 string    `json:"id"`
	URL                string    `json:"url"`
	Title              string    `json:"title"`
	ContentHash        string    `json:"contentHash"`
	CreatedAt          time.Time `json:"createdAt"`
	TotalObjects       int       `json:"totalObjects"`
	TotalRelationships int       `json:"totalRelationships"`
	Complexity         float64   `json:"complexity"`
}

func newGraphItem(rec *pagegraph.GraphRecord) graphItem {
	item := graphItem{
		ID:          rec.ID,
		URL:         rec.URL,
		ContentHash: rec.ContentHash,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Graph != nil {
		md := rec.Graph.Metadata
		item.Title = md.Title
		item.TotalObjects = md.TotalObjects
		item.TotalRelationships = md.TotalRelationships
		item.Complexity = md.Performance.Complexity
	}
	return item
}
