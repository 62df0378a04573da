package sync_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/wingetmirror/pkg/catalog"
	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/hooks"
	"github.com/glorpus-work/wingetmirror/pkg/manifest"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/sync"
	syncmocks "github.com/glorpus-work/wingetmirror/pkg/sync/mocks"
)

const testPackage = "Git.Git"

type fixture struct {
	catalog   *syncmocks.MockCatalogReader
	index     *syncmocks.MockVersionIndexFetcher
	manifests *syncmocks.MockManifestFetcher
	dl        *syncmocks.MockInstallerDownloader
	store     *repository.Store
	orch      *sync.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store, err := repository.NewStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		catalog:   syncmocks.NewMockCatalogReader(ctrl),
		index:     syncmocks.NewMockVersionIndexFetcher(ctrl),
		manifests: syncmocks.NewMockManifestFetcher(ctrl),
		dl:        syncmocks.NewMockInstallerDownloader(ctrl),
		store:     store,
	}
	f.orch = &sync.Orchestrator{
		Catalog:    f.catalog,
		Index:      f.index,
		Manifests:  f.manifests,
		Downloader: f.dl,
		Repo:       store,
		TempDir:    t.TempDir(),
		Backoff:    time.Millisecond,
	}
	return f
}

func (f *fixture) expectCatalog(versions ...string) {
	f.catalog.EXPECT().FindPackage(gomock.Any(), testPackage).Return(&catalog.Entry{
		ID:            testPackage,
		Name:          "Git",
		LatestVersion: versions[len(versions)-1],
		Hash:          "0123456789abcdef0123456789abcdef",
	}, nil)
	var idx []catalog.VersionIndexEntry
	for _, v := range versions {
		idx = append(idx, catalog.VersionIndexEntry{
			Version:      v,
			ManifestPath: "manifests/g/Git/Git/" + v + "/m.yaml",
			ManifestHash: "hash-" + v,
		})
	}
	f.index.EXPECT().FetchVersionIndex(gomock.Any(), testPackage, "01234567").Return(idx, nil)
}

func (f *fixture) expectManifest(t *testing.T, v string, arches ...string) {
	text := fmt.Sprintf("PackageIdentifier: %s\nPackageVersion: %s\nInstallerType: exe\nInstallers:\n", testPackage, v)
	for _, a := range arches {
		text += fmt.Sprintf("- Architecture: %s\n  InstallerUrl: https://example.com/%s/Git-%s-%s.exe\n", a, v, v, a)
	}
	doc, err := manifest.Parse([]byte(text))
	require.NoError(t, err)
	f.manifests.EXPECT().
		Fetch(gomock.Any(), "manifests/g/Git/Git/"+v+"/m.yaml", "hash-"+v).
		Return(&manifest.Fetched{Path: "manifests/g/Git/Git/" + v + "/m.yaml", Document: doc, Text: []byte(text), SHA256: "hash-" + v}, nil)
}

func (f *fixture) expectManifestError(v string) {
	f.manifests.EXPECT().
		Fetch(gomock.Any(), "manifests/g/Git/Git/"+v+"/m.yaml", "hash-"+v).
		Return(nil, fmt.Errorf("boom: %w", pkgerrors.ErrFetch))
}

// writeDownload stands in for a successful download.
func writeDownload(_ context.Context, url, target, _ string) (string, error) {
	if err := os.WriteFile(target, []byte(url), 0o644); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]), nil
}

func allSettings() model.CacheSettings {
	s := model.DefaultCacheSettings()
	s.VersionMode = model.VersionModeAll
	return s
}

func TestImport_PartialManifestFailures(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog("1.0.0", "2.0.0", "3.0.0", "4.0.0", "5.0.0")
	f.expectManifest(t, "1.0.0", "x64")
	f.expectManifestError("2.0.0")
	f.expectManifest(t, "3.0.0", "x64")
	f.expectManifestError("4.0.0")
	f.expectManifest(t, "5.0.0", "x64")
	f.dl.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeDownload).Times(3)

	res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: allSettings()})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ImportedVersions)
	assert.Less(t, res.ImportedVersions, 5)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "2.0.0", res.Errors[0].Version)
	assert.Equal(t, "4.0.0", res.Errors[1].Version)

	entry, err := f.store.FindPackage(testPackage)
	require.NoError(t, err)
	assert.Len(t, entry.Installers, 3)
	assert.Equal(t, "Imported from WinGet repository", entry.Package.ShortDescription)
	assert.Equal(t, "Unknown", entry.Package.Publisher)
	assert.True(t, entry.Package.Cached)
	require.NotNil(t, entry.Package.CacheSettings)
	assert.Equal(t, model.VersionModeAll, entry.Package.CacheSettings.VersionMode)
}

func TestImport_NoCandidatesFailsRun(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog("1.0.0")
	f.expectManifest(t, "1.0.0", "x86")

	settings := allSettings()
	settings.Architectures = []string{"arm64"}
	_, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: settings})
	assert.ErrorIs(t, err, pkgerrors.ErrNoMatchingVersions)

	_, err = f.store.FindPackage(testPackage)
	assert.ErrorIs(t, err, pkgerrors.ErrPackageNotFound)
}

func TestImport_AllDownloadsFailStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.orch.Attempts = 2
	f.expectCatalog("1.0.0")
	f.expectManifest(t, "1.0.0", "x64", "x86")
	f.dl.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", pkgerrors.ErrHashMismatch).Times(4)

	res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: allSettings()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedVersions)
	assert.Len(t, res.Errors, 2)
	for _, ir := range res.Installers {
		assert.Equal(t, sync.StatusFailed, ir.Status)
		assert.Contains(t, ir.Error, "content hash mismatch")
	}
}

func TestImport_FatalLookupErrors(t *testing.T) {
	t.Run("package not in catalog", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.EXPECT().FindPackage(gomock.Any(), testPackage).Return(nil, pkgerrors.ErrPackageNotFoundWithID(testPackage))

		_, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage})
		assert.ErrorIs(t, err, pkgerrors.ErrPackageNotFound)
	})

	t.Run("version index unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.EXPECT().FindPackage(gomock.Any(), testPackage).Return(&catalog.Entry{ID: testPackage, Hash: "aabbccddeeff"}, nil)
		f.index.EXPECT().FetchVersionIndex(gomock.Any(), testPackage, "aabbccdd").Return(nil, fmt.Errorf("%w: %w", pkgerrors.ErrFetch, pkgerrors.ErrFormat))

		_, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage})
		assert.ErrorIs(t, err, pkgerrors.ErrFetch)
		assert.ErrorIs(t, err, pkgerrors.ErrFormat)
	})
}

func TestImport_LatestModeFetchesHighestVersionOnly(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog("1.9.0", "1.10.0", "1.2.0")
	f.expectManifest(t, "1.10.0", "x64", "arm64")
	f.dl.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeDownload).Times(2)

	res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: model.DefaultCacheSettings()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedVersions)
	for _, ir := range res.Installers {
		assert.Equal(t, "1.10.0", ir.Version)
		assert.Equal(t, sync.StatusImported, ir.Status)
	}
}

func TestImport_VersionFilters(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog("1.0.0", "1.5.0", "2.0.0")
	f.expectManifest(t, "1.5.0", "x64")
	f.dl.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeDownload)

	settings := model.DefaultCacheSettings()
	settings.VersionFilter = "1.*"
	settings.VersionConstraint = ">= 1.1"
	res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: settings})
	require.NoError(t, err)
	require.Len(t, res.Installers, 1)
	assert.Equal(t, "1.5.0", res.Installers[0].Version)
}

func TestImport_SkipsExistingAndPreservesCuratedFields(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SavePackage(&model.Package{
		Identifier:    testPackage,
		Name:          "Old",
		Tags:          []string{"vcs"},
		Homepage:      "https://git-scm.com",
		License:       "GPL-2.0",
		ADGroupScopes: []model.ADGroupScope{{ADGroup: "Developers", Scope: "machine"}},
		Cached:        true,
	}))
	src := filepath.Join(t.TempDir(), "old.exe")
	require.NoError(t, os.WriteFile(src, []byte("old"), 0o644))
	_, err := f.store.AddInstaller(testPackage, &model.Installer{Version: "1.0.0", Architecture: "X64", InstallerType: "EXE"}, src)
	require.NoError(t, err)

	f.expectCatalog("1.0.0")
	f.expectManifest(t, "1.0.0", "x64", "x86")
	f.dl.EXPECT().Download(gomock.Any(), "https://example.com/1.0.0/Git-1.0.0-x86.exe", gomock.Any(), gomock.Any()).DoAndReturn(writeDownload)

	res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: allSettings()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedVersions)
	require.Len(t, res.Installers, 2)
	assert.Equal(t, sync.StatusSkipped, res.Installers[0].Status)
	assert.Equal(t, sync.StatusImported, res.Installers[1].Status)

	entry, err := f.store.FindPackage(testPackage)
	require.NoError(t, err)
	assert.Equal(t, "Git", entry.Package.Name)
	assert.Equal(t, []string{"vcs"}, entry.Package.Tags)
	assert.Equal(t, "https://git-scm.com", entry.Package.Homepage)
	assert.Equal(t, "GPL-2.0", entry.Package.License)
	assert.Len(t, entry.Package.ADGroupScopes, 1)

	imported := entry.FindInstaller(res.Installers[1].InstallerID)
	require.NotNil(t, imported)
	assert.Equal(t, "Git-1.0.0-x86.exe", imported.InstallerFile)
	assert.Equal(t, "manifests/g/Git/Git/1.0.0/m.yaml", imported.UpstreamManifestPath)
	assert.FileExists(t, filepath.Join(f.store.DataDir(), filepath.FromSlash(imported.StoragePath), "upstream_manifest.yaml"))
}

func TestImport_RetriesDownloads(t *testing.T) {
	f := newFixture(t)
	f.expectCatalog("1.0.0")
	f.expectManifest(t, "1.0.0", "x64")

	calls := 0
	f.dl.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url, target, expected string) (string, error) {
			calls++
			if calls < 3 {
				_ = os.WriteFile(target, []byte("partial"), 0o644)
				return "", pkgerrors.ErrUnexpectedStatus(502, url)
			}
			_, err := os.Stat(target)
			assert.True(t, errors.Is(err, os.ErrNotExist), "partial file must be discarded between attempts")
			return writeDownload(ctx, url, target, expected)
		}).Times(3)

	res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: allSettings()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedVersions)
	assert.Empty(t, res.Errors)
}

func TestImport_Hooks(t *testing.T) {
	t.Run("pre-import hook aborts", func(t *testing.T) {
		f := newFixture(t)
		ctrl := gomock.NewController(t)
		hr := syncmocks.NewMockHookRunner(ctrl)
		hr.EXPECT().HasScript(hooks.PreImport).Return(true)
		hr.EXPECT().Execute(hooks.PreImport, hooks.HookContext{PackageID: testPackage, Mode: "latest"}).
			Return(pkgerrors.ErrHookScript)
		f.orch.Hooks = hr

		_, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage})
		assert.ErrorIs(t, err, pkgerrors.ErrHookScript)
	})

	t.Run("post-import hook sees counts", func(t *testing.T) {
		f := newFixture(t)
		f.expectCatalog("1.0.0")
		f.expectManifest(t, "1.0.0", "x64")
		f.dl.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeDownload)

		executor := hooks.NewTengoExecutor()
		executor.AddScript(hooks.PostImport, `if importedVersions != 1 || errorCount != 0 { err = "unexpected counts" }`)
		f.orch.Hooks = executor

		res, err := f.orch.Import(context.Background(), sync.Request{PackageID: testPackage, Settings: allSettings()})
		require.NoError(t, err)
		assert.Equal(t, 1, res.ImportedVersions)
	})
}

func TestImport_RejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	unlock, err := f.store.LockPackage(testPackage)
	require.NoError(t, err)
	defer unlock()

	_, err = f.orch.Import(context.Background(), sync.Request{PackageID: testPackage})
	assert.ErrorIs(t, err, pkgerrors.ErrImportInProgress)
}

func TestInstallerFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/dl/Git-2.45.0-64-bit.exe", want: "Git-2.45.0-64-bit.exe"},
		{url: "https://example.com/dl/setup.msi?token=abc", want: "setup.msi"},
		{url: "https://example.com/", want: "Git_Git.exe"},
		{url: "https://example.com", want: "Git_Git.exe"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, sync.InstallerFileName(testPackage, tt.url))
		})
	}
}
