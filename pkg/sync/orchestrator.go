// Package sync imports packages from the upstream catalog into the repository store
// and keeps cached packages up to date.
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/catalog"
	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
	"github.com/glorpus-work/wingetmirror/pkg/hooks"
	"github.com/glorpus-work/wingetmirror/pkg/manifest"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/version"
)

const (
	// DefaultAttempts is how often an installer download is tried.
	DefaultAttempts = 3
	// DefaultBackoff is multiplied by the attempt number between download attempts.
	DefaultBackoff = time.Second

	defaultPublisher   = "Unknown"
	importedDesc       = "Imported from WinGet repository"
	upstreamManifestFn = "upstream_manifest.yaml"
)

// Orchestrator runs package imports. Hooks is optional.
type Orchestrator struct {
	Catalog    CatalogReader
	Index      VersionIndexFetcher
	Manifests  ManifestFetcher
	Downloader InstallerDownloader
	Repo       Repository
	Hooks      HookRunner

	// TempDir receives partial downloads. Empty means the system temp dir.
	TempDir  string
	Attempts int
	Backoff  time.Duration
}

// Import runs one import. It fails when the package is unknown, the version index cannot
// be loaded or no installer candidate survives the filters. Failed manifests and
// downloads are reported in the Result.
func (o *Orchestrator) Import(ctx context.Context, req Request) (*Result, error) {
	id := req.PackageID
	unlock, err := o.Repo.LockPackage(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	settings := req.Settings
	if settings.VersionMode == "" {
		settings.VersionMode = model.VersionModeLatest
	}

	if err := o.runHook(hooks.PreImport, hooks.HookContext{PackageID: id, Mode: string(settings.VersionMode)}); err != nil {
		return nil, fmt.Errorf("pre-import hook rejected %s: %w", id, err)
	}

	logger.Info("Importing package", logger.Fields{"package": id, "mode": settings.VersionMode})
	entry, err := o.Catalog.FindPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	index, err := o.Index.FetchVersionIndex(ctx, entry.ID, entry.HashPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to load version index for %s: %w", id, err)
	}

	result := &Result{PackageID: entry.ID, Errors: []VersionError{}, Installers: []InstallerResult{}}
	filters := manifest.Filters{
		Architectures:  settings.Architectures,
		Scopes:         settings.Scopes,
		InstallerTypes: settings.InstallerTypes,
	}

	var candidates []manifest.Candidate
	for _, ve := range selectVersions(index, settings) {
		fetched, err := o.Manifests.Fetch(ctx, ve.ManifestPath, ve.ManifestHash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Skipping version, manifest unavailable", logger.Fields{"package": id, "version": ve.Version, "error": err})
			result.Errors = append(result.Errors, VersionError{Version: ve.Version, Error: err.Error()})
			continue
		}
		for _, c := range manifest.ExtractInstallers(fetched.Document, filters) {
			if c.Version == "" {
				c.Version = ve.Version
			}
			c.ManifestPath = fetched.Path
			c.ManifestSHA256 = fetched.SHA256
			c.ManifestText = fetched.Text
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrNoMatchingVersions, id)
	}
	if settings.VersionMode == model.VersionModeLatest {
		candidates = version.SelectLatestPerGroup(candidates, settings.InstallerTypes)
	}
	logger.Debug("Selected installers", logger.Fields{"package": id, "count": len(candidates)})

	pkg, err := o.savePackage(entry, settings, req.ADGroupScopes)
	if err != nil {
		return nil, err
	}
	result.PackageName = pkg.Name

	if o.TempDir != "" {
		if err := fsutil.EnsureDir(o.TempDir); err != nil {
			return nil, fmt.Errorf("failed to create download directory: %w", err)
		}
	}
	tmpDir, err := os.MkdirTemp(o.TempDir, "import-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	for _, c := range candidates {
		ir := o.importInstaller(ctx, pkg.Identifier, c, tmpDir)
		if ir.Status == StatusFailed {
			result.Errors = append(result.Errors, VersionError{Version: c.Version, Error: ir.Error})
		}
		if ir.Status == StatusImported {
			result.ImportedVersions++
		}
		result.Installers = append(result.Installers, ir)
		if ctx.Err() != nil {
			break
		}
	}

	if err := o.runHook(hooks.PostImport, hooks.HookContext{
		PackageID:        pkg.Identifier,
		Mode:             string(settings.VersionMode),
		ImportedVersions: result.ImportedVersions,
		ErrorCount:       len(result.Errors),
	}); err != nil {
		logger.Warn("Post-import hook failed", logger.Fields{"package": id, "error": err})
	}

	logger.Success("Package imported", logger.Fields{
		"package":  pkg.Identifier,
		"imported": result.ImportedVersions,
		"errors":   len(result.Errors),
	})
	return result, nil
}

// selectVersions applies the version filters to the index. In latest mode only the
// highest remaining version is kept.
func selectVersions(index []catalog.VersionIndexEntry, settings model.CacheSettings) []catalog.VersionIndexEntry {
	var out []catalog.VersionIndexEntry
	for _, ve := range index {
		if !version.MatchesGlob(ve.Version, settings.VersionFilter) {
			continue
		}
		if !version.MatchesConstraint(ve.Version, settings.VersionConstraint) {
			continue
		}
		out = append(out, ve)
	}
	if settings.VersionMode != model.VersionModeLatest || len(out) <= 1 {
		return out
	}
	best := out[0]
	for _, ve := range out[1:] {
		if version.Compare(ve.Version, best.Version) > 0 {
			best = ve
		}
	}
	return []catalog.VersionIndexEntry{best}
}

// savePackage writes the package record, keeping locally curated fields of an existing one.
func (o *Orchestrator) savePackage(entry *catalog.Entry, settings model.CacheSettings, groups []model.ADGroupScope) (*model.Package, error) {
	pkg := &model.Package{
		Identifier:       entry.ID,
		Name:             entry.Name,
		Publisher:        entry.Publisher,
		ShortDescription: importedDesc,
		Tags:             []string{},
		ADGroupScopes:    []model.ADGroupScope{},
		Cached:           true,
	}
	if pkg.Name == "" {
		pkg.Name = entry.ID
	}
	if pkg.Publisher == "" {
		pkg.Publisher = defaultPublisher
	}

	existing, err := o.Repo.FindPackage(entry.ID)
	switch {
	case err == nil:
		prev := existing.Package
		pkg.Identifier = prev.Identifier
		pkg.Tags = slices.Clone(prev.Tags)
		pkg.Homepage = prev.Homepage
		pkg.SupportURL = prev.SupportURL
		pkg.License = prev.License
		pkg.ADGroupScopes = slices.Clone(prev.ADGroupScopes)
	case !errors.Is(err, pkgerrors.ErrPackageNotFound):
		return nil, err
	}
	if groups != nil {
		pkg.ADGroupScopes = slices.Clone(groups)
	}

	cs := settings
	cs.Architectures = nonNil(settings.Architectures)
	cs.Scopes = nonNil(settings.Scopes)
	cs.InstallerTypes = nonNil(settings.InstallerTypes)
	pkg.CacheSettings = &cs

	if err := o.Repo.SavePackage(pkg); err != nil {
		return nil, fmt.Errorf("failed to save package %s: %w", entry.ID, err)
	}
	return pkg, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func (o *Orchestrator) importInstaller(ctx context.Context, packageID string, c manifest.Candidate, tmpDir string) InstallerResult {
	rec := toInstaller(c)
	ir := InstallerResult{
		Version:       rec.Version,
		Architecture:  rec.Architecture,
		Scope:         rec.EffectiveScope(),
		InstallerType: rec.InstallerType,
	}

	if existing, err := o.Repo.FindPackage(packageID); err == nil {
		for _, inst := range existing.Installers {
			if inst.SameTarget(rec) {
				logger.Info("Skipping existing installer", logger.Fields{
					"package": packageID, "version": rec.Version, "architecture": rec.Architecture, "scope": ir.Scope,
				})
				ir.Status = StatusSkipped
				ir.InstallerID = inst.InstallerID
				return ir
			}
		}
	}

	rec.InstallerFile = InstallerFileName(packageID, c.URL)
	target := filepath.Join(tmpDir, rec.InstallerFile)
	sum, err := o.download(ctx, c.URL, target, c.SHA256)
	if err != nil {
		logger.Error("Installer download failed", logger.Fields{"package": packageID, "version": rec.Version, "url": c.URL, "error": err})
		ir.Status = StatusFailed
		ir.Error = err.Error()
		return ir
	}
	rec.SHA256 = sum

	var opts []repository.AddOption
	if len(c.ManifestText) > 0 {
		opts = append(opts, repository.WithAttachment(upstreamManifestFn, c.ManifestText))
	}
	stored, err := o.Repo.AddInstaller(packageID, rec, target, opts...)
	if err != nil {
		ir.Status = StatusFailed
		ir.Error = err.Error()
		return ir
	}
	ir.Status = StatusImported
	ir.InstallerID = stored.InstallerID
	return ir
}

// download tries the installer download with linear backoff, discarding partial files.
func (o *Orchestrator) download(ctx context.Context, u, target, expected string) (string, error) {
	attempts := o.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	backoff := o.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		sum, err := o.Downloader.Download(ctx, u, target, expected)
		if err == nil {
			return sum, nil
		}
		lastErr = err
		_ = os.Remove(target)
		if attempt == attempts {
			break
		}
		logger.Warn("Retrying installer download", logger.Fields{"url": u, "attempt": attempt, "error": err})
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
	return "", fmt.Errorf("download failed after %d attempts: %w", attempts, lastErr)
}

func (o *Orchestrator) runHook(t hooks.HookType, hc hooks.HookContext) error {
	if o.Hooks == nil || !o.Hooks.HasScript(t) {
		return nil
	}
	return o.Hooks.Execute(t, hc)
}

// InstallerFileName derives the stored file name from the installer URL, falling back
// to the package id with dots replaced and the URL extension or .exe.
func InstallerFileName(packageID, rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base != "" && base != "." && base != "/" && !strings.ContainsAny(base, `\:`) {
		return base
	}
	ext := path.Ext(p)
	if ext == "" || strings.ContainsAny(ext, `/\:`) {
		ext = ".exe"
	}
	return strings.ReplaceAll(packageID, ".", "_") + ext
}

func toInstaller(c manifest.Candidate) *model.Installer {
	inst := &model.Installer{
		Version:                     c.Version,
		Architecture:                c.Architecture,
		Scope:                       c.Scope,
		InstallerType:               c.InstallerType,
		SHA256:                      strings.ToLower(c.SHA256),
		SilentArguments:             c.Silent,
		SilentWithProgressArguments: c.SilentWithProgress,
		InteractiveArguments:        c.Interactive,
		LogArguments:                c.Log,
		ProductCode:                 c.ProductCode,
		RequiresElevation:           c.RequiresElevation,
		PackageDependencies:         nonNil(c.PackageDependencies),
		NestedInstallerType:         c.NestedInstallerType,
		NestedInstallerFiles:        slices.Clone(c.NestedInstallerFiles),
		ReleaseDate:                 c.ReleaseDate,
		UpstreamManifestPath:        c.ManifestPath,
		UpstreamManifestSHA256:      c.ManifestSHA256,
	}
	if inst.Architecture == "" {
		inst.Architecture = "x64"
	}
	if inst.InstallerType == "" {
		inst.InstallerType = model.InstallerTypeExe
	}
	if inst.NestedInstallerFiles == nil {
		inst.NestedInstallerFiles = []model.NestedInstallerFile{}
	}
	if len(c.InstallModes) > 0 {
		inst.InstallModeInteractive = hasMode(c.InstallModes, "interactive")
		inst.InstallModeSilent = hasMode(c.InstallModes, "silent")
		inst.InstallModeSilentWithProgress = hasMode(c.InstallModes, "silentWithProgress")
	}
	return inst
}

func hasMode(modes []string, mode string) *bool {
	ok := slices.ContainsFunc(modes, func(m string) bool { return strings.EqualFold(m, mode) })
	return &ok
}
