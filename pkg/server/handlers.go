package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/rest"
	"github.com/glorpus-work/wingetmirror/pkg/search"
)

func searchSnapshot(snap *repository.Snapshot, body rest.ManifestSearchRequest) []rest.ManifestSearchResult {
	return rest.SearchResults(search.Search(snap, body.ToSearch()))
}

func (s *Server) handleInstaller(w http.ResponseWriter, r *http.Request) {
	pkgID, instID := r.PathValue("id"), r.PathValue("installerId")

	path, err := s.repo.InstallerPath(pkgID, instID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrPackageNotFound) ||
			errors.Is(err, pkgerrors.ErrInstallerNotFound) ||
			errors.Is(err, pkgerrors.ErrNoStoragePath) ||
			errors.Is(err, pkgerrors.ErrInvalidPath) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("Failed to resolve installer", logger.Fields{"package": pkgID, "installer": instID, "error": err})
		writeError(w, http.StatusInternalServerError, "failed to resolve installer")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "installer file missing")
			return
		}
		logger.Error("Failed to open installer", logger.Fields{"path": path, "error": err})
		writeError(w, http.StatusInternalServerError, "failed to open installer")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "installer file missing")
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", logger.Fields{"error": err})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("Request served", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
