// Package download streams installer binaries to disk with SHA-256 verification.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
	pkghttp "github.com/glorpus-work/wingetmirror/pkg/http"
)

// Manager downloads installers. It does not retry; callers decide the policy.
type Manager struct {
	client *pkghttp.Client
}

// NewManager creates a download manager on top of client.
func NewManager(client *pkghttp.Client) *Manager {
	return &Manager{client: client}
}

// Download streams url to targetPath while hashing it and returns the lower-case hex
// SHA-256. When expectedHash is set and differs (ignoring case) the partial file is
// removed and errors.ErrHashMismatch is returned. The target only appears once the
// content is verified.
func (m *Manager) Download(ctx context.Context, url, targetPath, expectedHash string) (string, error) {
	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}

	start := time.Now()
	body, err := m.client.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(targetPath), "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), body)
	if err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("read %s: %v: %w", url, err, pkgerrors.ErrFetch)
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "could not close file")
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if expectedHash != "" && actual != normalizeHex(expectedHash) {
		return "", fmt.Errorf("installer %s: expected %s, got %s: %w", url, expectedHash, actual, pkgerrors.ErrHashMismatch)
	}

	if err := finalizeFile(tmpPath, targetPath); err != nil {
		return "", err
	}
	keep = true

	logger.Debug("Downloaded installer", logger.Fields{
		"url":      url,
		"path":     targetPath,
		"size":     bytesize.New(float64(n)).String(),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	return actual, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
