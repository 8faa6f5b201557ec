// Package api serves the results of past runs: the HTML report and figures
// of the latest run, a JSON view of the run history and the database debug
// console.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/accident.report/internal/db"
	"github.com/banshee-data/accident.report/internal/httputil"
	"github.com/banshee-data/accident.report/internal/monitoring"
	"github.com/banshee-data/accident.report/internal/security"
)

// ReportFile is the name of the HTML report inside a run's output directory.
const ReportFile = "report.html"

// ShutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const ShutdownTimeout = 5 * time.Second

// ANSI escape codes for the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// servable lists the extensions /plots/ will return.
var servable = map[string]bool{".png": true, ".html": true, ".xlsx": true}

type Server struct {
	db *db.DB
	// outputDir is used when the database has no runs yet.
	outputDir string
}

func NewServer(database *db.DB, outputDir string) *Server {
	return &Server{db: database, outputDir: outputDir}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes of the server, including the database admin
// routes under /debug/.
func (s *Server) ServeMux() (*http.ServeMux, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.showReport)
	mux.HandleFunc("GET /plots/{file}", s.showFile)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/latest", s.showLatestRun)
	mux.HandleFunc("GET /api/runs/{id}", s.showRun)
	mux.HandleFunc("GET /api/runs/{id}/counts", s.showValueCounts)
	if err := s.db.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

// latestDir is the output directory of the newest recorded run.
func (s *Server) latestDir() (string, error) {
	run, err := s.db.LatestRun()
	if errors.Is(err, db.ErrNotFound) {
		if s.outputDir == "" {
			return "", db.ErrNotFound
		}
		return s.outputDir, nil
	}
	if err != nil {
		return "", err
	}
	return run.OutputDir, nil
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	dir, err := s.latestDir()
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "no runs recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		monitoring.Logf("failed to find latest run: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, filepath.Join(dir, ReportFile))
}

func (s *Server) showFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if !servable[strings.ToLower(filepath.Ext(name))] {
		http.NotFound(w, r)
		return
	}
	dir, err := s.latestDir()
	if errors.Is(err, db.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		monitoring.Logf("failed to find latest run: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	path, err := security.ResolveWithin(dir, name)
	if err != nil {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.db.Runs(limit)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	if runs == nil {
		runs = []db.RunRecord{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.LatestRun()
	s.writeRun(w, run, err)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.Run(r.PathValue("id"))
	s.writeRun(w, run, err)
}

func (s *Server) writeRun(w http.ResponseWriter, run *db.RunRecord, err error) {
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) showValueCounts(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		httputil.BadRequest(w, "missing 'field' parameter")
		return
	}
	counts, err := s.db.ValueCounts(r.PathValue("id"), field)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, counts)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully, waiting at most ShutdownTimeout for open requests.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return Serve(ctx, ln, h)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	monitoring.Logf("serving on http://%s", ln.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
		return err
	}
	monitoring.Logf("HTTP server stopped")
	return nil
}
