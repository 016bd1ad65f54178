// Package assetserver serves local files to the chat renderer. Rewritten image
// URLs and resolved attachment URLs point here.
package assetserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var errOutsideRoot = errors.New("path escapes asset root")

type Server struct {
	Router *chi.Mux
	Port   int
	Root   string
	logger *slog.Logger
}

// New builds a server exposing the files below root.
func New(root string, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if root == "" {
		root = string(os.PathSeparator)
	}

	s := &Server{
		Router: chi.NewRouter(),
		Port:   port,
		Root:   filepath.Clean(root),
		logger: logger,
	}

	r := s.Router
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(AllowAnyOrigin)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "asset-server")
	})

	r.Get("/*", s.serveAsset)
	r.Head("/*", s.serveAsset)

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting asset server", slog.Int("port", s.Port), slog.String("root", s.Root))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolve(r.URL.Path)
	if err != nil {
		AddError(r.Context(), err)
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		AddError(r.Context(), err)
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	AddLogField(r.Context(), "file", path)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// resolve maps a decoded request path onto a file below the root. Any ".."
// segment is rejected outright rather than cleaned away.
func (s *Server) resolve(urlPath string) (string, error) {
	rel := strings.TrimLeft(filepath.FromSlash(urlPath), string(os.PathSeparator))
	if rel == "" {
		return "", errOutsideRoot
	}
	for _, seg := range strings.FieldsFunc(rel, isSeparator) {
		if seg == ".." {
			return "", errOutsideRoot
		}
	}

	full := filepath.Join(s.Root, rel)
	within, err := filepath.Rel(s.Root, full)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(os.PathSeparator)) {
		return "", errOutsideRoot
	}
	return full, nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
