// Package server exposes the repository over the package source protocol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/rest"
)

// Default timeouts.
const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 30 * time.Second
)

// Repository is the read side of the store used by the handlers. *repository.Store
// implements it.
type Repository interface {
	Snapshot() *repository.Snapshot
	InstallerPath(packageID, installerID string) (string, error)
}

// Options configures a Server.
type Options struct {
	Addr string
	// PublicURL is the base of installer URLs in manifests.
	PublicURL   string
	Information rest.Information
	// RequestTimeout bounds every handler except installer downloads.
	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the protocol endpoints.
type Server struct {
	repo    Repository
	info    rest.Information
	builder *rest.ManifestBuilder
	opts    Options
	handler http.Handler
	httpSrv *http.Server
}

// New creates a server over repo.
func New(repo Repository, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	s := &Server{
		repo:    repo,
		info:    opts.Information,
		builder: &rest.ManifestBuilder{BaseURL: opts.PublicURL, Files: repo},
		opts:    opts,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	bounded := func(h http.HandlerFunc) http.Handler {
		return http.TimeoutHandler(h, s.opts.RequestTimeout, `{"error":"request timed out"}`)
	}

	mux.Handle("GET /winget/information", bounded(s.handleInformation))
	mux.Handle("POST /winget/manifestSearch", bounded(s.handleManifestSearch))
	mux.Handle("GET /winget/packageManifests/{id}", bounded(s.handlePackageManifest))
	// Installer streams are only bounded by the server write timeout.
	mux.HandleFunc("GET /winget/packages/{id}/versions/{installerId}/installer", s.handleInstaller)
	mux.Handle("POST /api/auto-install", bounded(s.handleAutoInstall))
	mux.Handle("GET /health", bounded(s.handleHealth))

	return logRequests(mux)
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", logger.Fields{"addr": ln.Addr().String()})
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	logger.Info("Shutting down server")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInformation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rest.InformationResponse{Data: s.info})
}

func (s *Server) handleManifestSearch(w http.ResponseWriter, r *http.Request) {
	var body rest.ManifestSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "malformed search request: "+err.Error())
		return
	}

	summaries := searchSnapshot(s.repo.Snapshot(), body)
	if len(summaries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, rest.ManifestSearchResponse{
		Data:                          summaries,
		RequiredPackageMatchFields:    s.info.RequiredPackageMatchFields,
		UnsupportedPackageMatchFields: s.info.UnsupportedPackageMatchFields,
	})
}

func (s *Server) handlePackageManifest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry := s.repo.Snapshot().Lookup(id)
	if entry == nil {
		writeError(w, http.StatusNotFound, "package not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, rest.PackageManifestResponse{
		Data:                       s.builder.Build(entry),
		UnsupportedQueryParameters: s.info.UnsupportedQueryParameters,
		RequiredQueryParameters:    s.info.RequiredQueryParameters,
	})
}

func (s *Server) handleAutoInstall(w http.ResponseWriter, r *http.Request) {
	var body rest.AutoInstallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "malformed auto-install request: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rest.AutoInstallResponse{
		Results: rest.AutoInstall(s.repo.Snapshot(), body.Groups),
	})
}
