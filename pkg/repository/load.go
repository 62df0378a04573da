package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/model"
)

const (
	// CachedDir holds packages imported from upstream.
	CachedDir = "cached"
	// OwnedDir holds packages maintained locally.
	OwnedDir = "owned"

	packageFile = "package.json"
	versionFile = "version.json"
)

// load scans dataDir and builds a fresh snapshot. Unreadable records are logged and skipped.
func load(dataDir string) (*Snapshot, error) {
	var entries []*Entry
	seen := make(map[string]*Entry)
	for _, group := range []string{CachedDir, OwnedDir} {
		root := filepath.Join(dataDir, group)
		dirs, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", root, err)
		}
		for _, d := range dirs {
			if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				continue
			}
			rel := filepath.ToSlash(filepath.Join(group, d.Name()))
			entry, err := loadEntry(dataDir, rel)
			if err != nil {
				logger.Warn("Skipping unreadable package", logger.Fields{"dir": rel, "error": err})
				continue
			}
			if entry == nil {
				continue
			}
			id := entry.Package.Identifier
			if prev, dup := seen[id]; dup {
				logger.Warn("Duplicate package directory ignored", logger.Fields{"package": id, "kept": prev.Dir, "ignored": rel})
				continue
			}
			seen[id] = entry
			entries = append(entries, entry)
		}
	}
	return NewSnapshot(entries...), nil
}

func loadEntry(dataDir, rel string) (*Entry, error) {
	dir := filepath.Join(dataDir, filepath.FromSlash(rel))
	var pkg model.Package
	if err := readJSON(filepath.Join(dir, packageFile), &pkg); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if pkg.Identifier == "" {
		pkg.Identifier = filepath.Base(dir)
	}

	entry := &Entry{Package: &pkg, Dir: rel}
	subdirs, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, sd := range subdirs {
		if !sd.IsDir() {
			continue
		}
		var inst model.Installer
		err := readJSON(filepath.Join(dir, sd.Name(), versionFile), &inst)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			logger.Warn("Skipping unreadable installer", logger.Fields{"package": pkg.Identifier, "dir": sd.Name(), "error": err})
			continue
		}
		if inst.InstallerType == "" {
			inst.InstallerType = model.InstallerTypeExe
		}
		inst.StoragePath = rel + "/" + sd.Name()
		entry.Installers = append(entry.Installers, &inst)
	}
	sortInstallers(entry.Installers)
	return entry, nil
}

func sortInstallers(installers []*model.Installer) {
	slices.SortStableFunc(installers, func(a, b *model.Installer) int {
		return strings.Compare(a.StoragePath, b.StoragePath)
	})
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func encodeJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
