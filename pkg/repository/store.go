// Package repository is the on-disk package and installer store. Readers work against an
// immutable Snapshot, writers publish a new one after every change.
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
	"github.com/glorpus-work/wingetmirror/pkg/model"
)

// Store keeps packages under <data>/cached and <data>/owned.
type Store struct {
	dataDir string

	// mu serializes writers. Readers only load current.
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	lockMu  sync.Mutex
	running map[string]struct{}
}

// NewStore opens the store rooted at dataDir and loads it.
func NewStore(dataDir string) (*Store, error) {
	for _, dir := range []string{dataDir, filepath.Join(dataDir, CachedDir), filepath.Join(dataDir, OwnedDir)} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}
	s := &Store{dataDir: dataDir, running: make(map[string]struct{})}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// DataDir returns the root directory of the store.
func (s *Store) DataDir() string { return s.dataDir }

// Snapshot returns the current read view.
func (s *Store) Snapshot() *Snapshot { return s.current.Load() }

// Reload rebuilds the snapshot from disk.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := load(s.dataDir)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	logger.Debug("Repository loaded", logger.Fields{"packages": snap.Len()})
	return nil
}

// FindPackage returns the entry for id.
func (s *Store) FindPackage(id string) (*Entry, error) {
	if e := s.Snapshot().Lookup(id); e != nil {
		return e, nil
	}
	return nil, pkgerrors.ErrPackageNotFoundWithID(id)
}

// AllPackages returns every entry ordered by id.
func (s *Store) AllPackages() []*Entry {
	return s.Snapshot().All()
}

// SavePackage creates or updates the package record. New packages land in cached/ when
// pkg.Cached is set and in owned/ otherwise.
func (s *Store) SavePackage(pkg *model.Package) error {
	if err := validateName(pkg.Identifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.current.Load()
	var entry *Entry
	if prev := snap.Get(pkg.Identifier); prev != nil {
		entry = prev.clone()
	} else {
		group := OwnedDir
		if pkg.Cached {
			group = CachedDir
		}
		entry = &Entry{Dir: group + "/" + pkg.Identifier}
	}
	entry.Package = pkg.Clone()

	data, err := encodeJSON(entry.Package)
	if err != nil {
		return fmt.Errorf("failed to encode package %s: %w", pkg.Identifier, err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(s.abs(entry.Dir), packageFile), data, fsutil.FileModeDefault); err != nil {
		return err
	}
	s.current.Store(snap.with(pkg.Identifier, entry))
	return nil
}

// AddOption customizes AddInstaller.
type AddOption func(*addOptions)

type addOptions struct {
	attachments map[string][]byte
}

// WithAttachment stores an extra file next to the installer.
func WithAttachment(name string, data []byte) AddOption {
	return func(o *addOptions) {
		if o.attachments == nil {
			o.attachments = make(map[string][]byte)
		}
		o.attachments[name] = data
	}
}

// AddInstaller moves sourceFile into a new installer directory of the package and records
// inst. A missing installer id is generated. The stored record is returned.
func (s *Store) AddInstaller(packageID string, inst *model.Installer, sourceFile string, opts ...AddOption) (*model.Installer, error) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.current.Load()
	prev := snap.Get(packageID)
	if prev == nil {
		return nil, pkgerrors.ErrPackageNotFoundWithID(packageID)
	}

	rec := inst.Clone()
	if rec.InstallerID == "" {
		rec.InstallerID = uuid.NewString()
	}
	if rec.InstallerType == "" {
		rec.InstallerType = model.InstallerTypeExe
	}
	if rec.InstallerFile == "" && sourceFile != "" {
		rec.InstallerFile = filepath.Base(sourceFile)
	}
	folder := rec.FolderName()
	if err := validateName(folder); err != nil {
		return nil, err
	}
	if rec.InstallerFile != "" {
		if err := validateName(rec.InstallerFile); err != nil {
			return nil, err
		}
	}

	rel := prev.Dir + "/" + folder
	dir := s.abs(rel)
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create installer directory %s: %w", dir, err)
	}
	if sourceFile != "" {
		target := filepath.Join(dir, rec.InstallerFile)
		if err := fsutil.Move(sourceFile, target); err != nil {
			return nil, err
		}
		if rec.SHA256 == "" {
			sum, err := fsutil.HashFile(target)
			if err != nil {
				return nil, err
			}
			rec.SHA256 = sum
		}
	}
	for name, data := range o.attachments {
		if err := validateName(name); err != nil {
			return nil, err
		}
		if err := fsutil.WriteFileAtomic(filepath.Join(dir, name), data, fsutil.FileModeDefault); err != nil {
			return nil, err
		}
	}

	data, err := encodeJSON(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode installer %s: %w", rec.InstallerID, err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, versionFile), data, fsutil.FileModeDefault); err != nil {
		return nil, err
	}
	rec.StoragePath = rel

	entry := prev.clone()
	entry.Installers = append(entry.Installers, rec)
	sortInstallers(entry.Installers)
	s.current.Store(snap.with(packageID, entry))

	logger.Debug("Installer stored", logger.Fields{"package": packageID, "installer": rec.InstallerID, "path": rel})
	return rec.Clone(), nil
}

// RemoveInstaller deletes one installer directory.
func (s *Store) RemoveInstaller(packageID, installerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.current.Load()
	prev := snap.Get(packageID)
	if prev == nil {
		return pkgerrors.ErrPackageNotFoundWithID(packageID)
	}
	inst := prev.FindInstaller(installerID)
	if inst == nil {
		return fmt.Errorf("%w: %s/%s", pkgerrors.ErrInstallerNotFound, packageID, installerID)
	}
	if inst.StoragePath == "" {
		return pkgerrors.ErrNoStoragePath
	}
	if err := os.RemoveAll(s.abs(inst.StoragePath)); err != nil {
		return fmt.Errorf("failed to remove installer %s: %w", installerID, err)
	}

	entry := prev.clone()
	entry.Installers = entry.Installers[:0:0]
	for _, other := range prev.Installers {
		if other.InstallerID != installerID {
			entry.Installers = append(entry.Installers, other)
		}
	}
	s.current.Store(snap.with(packageID, entry))
	return nil
}

// DeletePackage removes the package with all of its installers.
func (s *Store) DeletePackage(packageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.current.Load()
	prev := snap.Get(packageID)
	if prev == nil {
		return pkgerrors.ErrPackageNotFoundWithID(packageID)
	}
	if err := os.RemoveAll(s.abs(prev.Dir)); err != nil {
		return fmt.Errorf("failed to remove package %s: %w", packageID, err)
	}
	s.current.Store(snap.with(packageID, nil))
	return nil
}

// InstallerPath returns the absolute path of the file served for an installer.
func (s *Store) InstallerPath(packageID, installerID string) (string, error) {
	entry := s.Snapshot().Lookup(packageID)
	if entry == nil {
		return "", pkgerrors.ErrPackageNotFoundWithID(packageID)
	}
	inst := entry.FindInstaller(installerID)
	if inst == nil {
		return "", fmt.Errorf("%w: %s/%s", pkgerrors.ErrInstallerNotFound, packageID, installerID)
	}
	if inst.StoragePath == "" {
		return "", pkgerrors.ErrNoStoragePath
	}
	file := inst.ServedFile()
	if file == "" {
		return "", fmt.Errorf("%w: installer %s has no file", pkgerrors.ErrInstallerNotFound, installerID)
	}
	return s.resolve(inst.StoragePath, file)
}

// LockPackage marks an import of id as running. The returned function releases it.
func (s *Store) LockPackage(id string) (func(), error) {
	key := strings.ToLower(id)
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if _, busy := s.running[key]; busy {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrImportInProgress, id)
	}
	s.running[key] = struct{}{}
	return func() {
		s.lockMu.Lock()
		delete(s.running, key)
		s.lockMu.Unlock()
	}, nil
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(rel))
}

// resolve joins rel and name below the data dir and rejects anything escaping it.
func (s *Store) resolve(rel, name string) (string, error) {
	root, err := filepath.Abs(s.dataDir)
	if err != nil {
		return "", err
	}
	p, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel), name))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", pkgerrors.ErrInvalidPath, p)
	}
	return p, nil
}

// validateName accepts a single path element.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidPath, name)
	}
	return nil
}
