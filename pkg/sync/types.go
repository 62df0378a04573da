//go:generate mockgen -destination=./mocks/sync.go . CatalogReader,CatalogRefresher,VersionIndexFetcher,ManifestFetcher,InstallerDownloader,Repository,HookRunner,Importer

package sync

import (
	"context"

	"github.com/glorpus-work/wingetmirror/pkg/catalog"
	"github.com/glorpus-work/wingetmirror/pkg/hooks"
	"github.com/glorpus-work/wingetmirror/pkg/manifest"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
)

// CatalogReader looks packages up in the local catalog snapshot.
type CatalogReader interface {
	FindPackage(ctx context.Context, id string) (*catalog.Entry, error)
}

// CatalogRefresher downloads a fresh catalog snapshot.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (catalog.Status, error)
}

// VersionIndexFetcher loads the per-package version index from the CDN.
type VersionIndexFetcher interface {
	FetchVersionIndex(ctx context.Context, id, hashPrefix string) ([]catalog.VersionIndexEntry, error)
}

// ManifestFetcher downloads and parses one upstream manifest.
type ManifestFetcher interface {
	Fetch(ctx context.Context, relativePath, expectedHash string) (*manifest.Fetched, error)
}

// InstallerDownloader downloads an installer and returns its SHA-256.
type InstallerDownloader interface {
	Download(ctx context.Context, url, targetPath, expectedHash string) (string, error)
}

// Repository is the subset of the store used by imports and updates.
type Repository interface {
	FindPackage(id string) (*repository.Entry, error)
	AllPackages() []*repository.Entry
	SavePackage(pkg *model.Package) error
	AddInstaller(packageID string, inst *model.Installer, sourceFile string, opts ...repository.AddOption) (*model.Installer, error)
	LockPackage(id string) (func(), error)
}

// HookRunner runs the optional import scripts.
type HookRunner interface {
	HasScript(hookType hooks.HookType) bool
	Execute(hookType hooks.HookType, ctx hooks.HookContext) error
}

// Installer statuses reported in a Result.
const (
	StatusImported = "imported"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Request describes one import run.
type Request struct {
	PackageID string
	Settings  model.CacheSettings
	// ADGroupScopes replace the stored ones when non-nil.
	ADGroupScopes []model.ADGroupScope
}

// VersionError is a failure that did not abort the run.
type VersionError struct {
	Version string `json:"version"`
	Error   string `json:"error"`
}

// InstallerResult is the outcome for one selected installer.
type InstallerResult struct {
	Version       string `json:"version"`
	Architecture  string `json:"architecture"`
	Scope         string `json:"scope"`
	InstallerType string `json:"installer_type"`
	InstallerID   string `json:"installer_id,omitempty"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// Result summarizes an import run.
type Result struct {
	PackageID        string            `json:"package_id"`
	PackageName      string            `json:"package_name"`
	ImportedVersions int               `json:"imported_versions"`
	Errors           []VersionError    `json:"errors"`
	Installers       []InstallerResult `json:"installers"`
}
