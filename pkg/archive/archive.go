// Package archive reads single members out of zip based packages such as the MSIX
// bundle that carries the upstream catalog snapshot.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"

	"github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
)

// Manager extracts files from archives.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// ExtractFile copies the member at filePath into destPath. The destination is written
// to a temporary file in the same directory and renamed into place, so a failed
// extraction leaves any existing destPath untouched.
func (am *Manager) ExtractFile(ctx context.Context, archivePath, filePath, destPath string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	srcFile, err := fsys.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(destPath); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, srcFile); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to copy file %s to %s: %w", filePath, destPath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "chmod %s", tmpName)
	}
	return os.Rename(tmpName, destPath)
}

// Contains reports whether the archive has a regular file at filePath.
func (am *Manager) Contains(ctx context.Context, archivePath, filePath string) (bool, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return false, fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	info, err := fs.Stat(fsys, filePath)
	if err != nil {
		return false, nil
	}
	return info.Mode().IsRegular(), nil
}
