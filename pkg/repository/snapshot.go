package repository

import (
	"slices"
	"strings"

	"github.com/glorpus-work/wingetmirror/pkg/model"
)

// Entry is a package together with its installers. Entries reachable from a Snapshot
// are never modified; writers replace them.
type Entry struct {
	Package    *model.Package
	Installers []*model.Installer
	// Dir is the package directory relative to the data dir.
	Dir string
}

// FindInstaller returns the installer with the given id.
func (e *Entry) FindInstaller(installerID string) *model.Installer {
	for _, inst := range e.Installers {
		if inst.InstallerID == installerID {
			return inst
		}
	}
	return nil
}

// Versions returns the distinct non-empty versions of the entry's installers.
func (e *Entry) Versions() []string {
	var out []string
	for _, inst := range e.Installers {
		if inst.Version != "" && !slices.Contains(out, inst.Version) {
			out = append(out, inst.Version)
		}
	}
	return out
}

func (e *Entry) clone() *Entry {
	return &Entry{
		Package:    e.Package,
		Installers: slices.Clone(e.Installers),
		Dir:        e.Dir,
	}
}

// Snapshot is an immutable view of the repository.
type Snapshot struct {
	packages map[string]*Entry
	ids      []string
}

// NewSnapshot builds a snapshot from entries keyed by package identifier.
func NewSnapshot(entries ...*Entry) *Snapshot {
	packages := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		packages[e.Package.Identifier] = e
	}
	return newSnapshot(packages)
}

func newSnapshot(packages map[string]*Entry) *Snapshot {
	ids := make([]string, 0, len(packages))
	for id := range packages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return &Snapshot{packages: packages, ids: ids}
}

// Get returns the entry for id, or nil.
func (s *Snapshot) Get(id string) *Entry {
	return s.packages[id]
}

// Lookup returns the entry for id ignoring case.
func (s *Snapshot) Lookup(id string) *Entry {
	if e := s.packages[id]; e != nil {
		return e
	}
	for _, known := range s.ids {
		if strings.EqualFold(known, id) {
			return s.packages[known]
		}
	}
	return nil
}

// All returns every entry ordered by package id.
func (s *Snapshot) All() []*Entry {
	out := make([]*Entry, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.packages[id])
	}
	return out
}

// Len returns the number of packages.
func (s *Snapshot) Len() int { return len(s.ids) }

// with returns a copy of s with id set to e, or removed when e is nil.
func (s *Snapshot) with(id string, e *Entry) *Snapshot {
	packages := make(map[string]*Entry, len(s.packages)+1)
	for k, v := range s.packages {
		packages[k] = v
	}
	if e == nil {
		delete(packages, id)
	} else {
		packages[id] = e
	}
	return newSnapshot(packages)
}
