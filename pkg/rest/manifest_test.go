package rest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
)

type fileMap map[string]string

func (f fileMap) InstallerPath(_, installerID string) (string, error) {
	if p, ok := f[installerID]; ok {
		return p, nil
	}
	return "", pkgerrors.ErrInstallerNotFound
}

func boolPtr(b bool) *bool { return &b }

func versionsOf(t *testing.T, doc map[string]any) []map[string]any {
	t.Helper()
	raw, ok := doc["Versions"].([]any)
	require.True(t, ok)
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(map[string]any))
	}
	return out
}

func installersOf(v map[string]any) []map[string]any {
	var out []map[string]any
	for _, i := range v["Installers"].([]any) {
		out = append(out, i.(map[string]any))
	}
	return out
}

func TestBuild_VersionOrderAndHashlessExclusion(t *testing.T) {
	b := &ManifestBuilder{BaseURL: "https://mirror.example.com/"}
	entry := &repository.Entry{
		Package: &model.Package{Identifier: "Git.Git", Name: "Git", Publisher: "Git"},
		Installers: []*model.Installer{
			{Version: "2.45.0", Architecture: "x64", InstallerID: "a", SHA256: "aa", InstallerType: "exe"},
			{Version: "2.9.0", Architecture: "x64", InstallerID: "b", SHA256: "bb", InstallerType: "exe"},
			{Version: "3.0.0", Architecture: "x64", InstallerID: "c", InstallerType: "exe"},
		},
	}

	doc := b.Build(entry)
	assert.Equal(t, "Git.Git", doc["PackageIdentifier"])
	versions := versionsOf(t, doc)
	require.Len(t, versions, 2)
	assert.Equal(t, "2.9.0", versions[0]["PackageVersion"])
	assert.Equal(t, "2.45.0", versions[1]["PackageVersion"])

	inst := installersOf(versions[0])[0]
	assert.Equal(t, "https://mirror.example.com/winget/packages/Git.Git/versions/b/installer", inst["InstallerUrl"])
	assert.Equal(t, "b", inst["InstallerIdentifier"])
	assert.Equal(t, "bb", inst["InstallerSha256"])
}

func TestBuild_HashesStoredFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "setup.exe")
	require.NoError(t, os.WriteFile(p, []byte("payload"), 0o644))
	sum := sha256.Sum256([]byte("payload"))

	b := &ManifestBuilder{BaseURL: "http://localhost", Files: fileMap{"x": p}}
	doc := b.Build(&repository.Entry{
		Package:    &model.Package{Identifier: "A.B", Name: "A"},
		Installers: []*model.Installer{{Version: "1", Architecture: "x86", InstallerID: "x", InstallerType: "exe"}},
	})
	inst := installersOf(versionsOf(t, doc)[0])[0]
	assert.Equal(t, hex.EncodeToString(sum[:]), inst["InstallerSha256"])
}

func TestBuild_InstallerShape(t *testing.T) {
	released := time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC)
	b := &ManifestBuilder{BaseURL: "http://localhost"}
	doc := b.Build(&repository.Entry{
		Package: &model.Package{Identifier: "Tool.Tool", Name: "Tool", Publisher: "Acme", Tags: []string{"cli"}},
		Installers: []*model.Installer{
			{
				Version: "1.0", Architecture: "x64", InstallerID: "custom", SHA256: "11",
				InstallerType: model.InstallerTypeCustom, SilentArguments: "/S",
			},
			{
				Version: "1.0", Architecture: "arm64", Scope: "machine", InstallerID: "zip", SHA256: "22",
				InstallerType: model.InstallerTypeZip, NestedInstallerType: "portable",
				NestedInstallerFiles: []model.NestedInstallerFile{{RelativeFilePath: "bin/tool.exe", PortableCommandAlias: "tool"}},
				InstallModeSilent:    boolPtr(false),
				RequiresElevation:    true,
				PackageDependencies:  []string{"Microsoft.VCRedist.2015+.x64"},
				ReleaseDate:          &released,
			},
		},
	})

	version := versionsOf(t, doc)[0]
	locale := version["DefaultLocale"].(map[string]any)
	assert.Equal(t, "Proprietary", locale["License"])
	assert.Equal(t, "Tool installer", locale["ShortDescription"])
	assert.Equal(t, "en-US", locale["PackageLocale"])
	assert.Equal(t, []string{"cli"}, locale["Tags"])
	assert.NotContains(t, locale, "PrivacyUrl")
	assert.NotContains(t, version, "Channel")

	installers := installersOf(version)
	require.Len(t, installers, 2)

	custom := installers[0]
	assert.Equal(t, "zip", custom["InstallerType"])
	assert.Equal(t, "exe", custom["NestedInstallerType"])
	assert.Equal(t, []any{map[string]any{"RelativeFilePath": "install.bat"}}, custom["NestedInstallerFiles"])
	assert.Equal(t, []string{"interactive", "silent", "silentWithProgress"}, custom["InstallModes"])
	assert.Equal(t, map[string]any{"Silent": "/S", "SilentWithProgress": "/S"}, custom["InstallerSwitches"])
	assert.Equal(t, "none", custom["ElevationRequirement"])
	assert.NotContains(t, custom, "Scope")
	assert.NotContains(t, custom, "ReleaseDate")

	zip := installers[1]
	assert.Equal(t, "zip", zip["InstallerType"])
	assert.Equal(t, "portable", zip["NestedInstallerType"])
	assert.Equal(t, []any{map[string]any{"RelativeFilePath": "bin/tool.exe", "PortableCommandAlias": "tool"}}, zip["NestedInstallerFiles"])
	assert.Equal(t, []string{"interactive", "silentWithProgress"}, zip["InstallModes"])
	assert.Equal(t, "elevationRequired", zip["ElevationRequirement"])
	assert.Equal(t, "machine", zip["Scope"])
	assert.Equal(t, "2024-04-29", zip["ReleaseDate"])
	deps := zip["Dependencies"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"PackageIdentifier": "Microsoft.VCRedist.2015+.x64"}}, deps["PackageDependencies"])

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
}

func TestBuild_NoServableVersions(t *testing.T) {
	b := &ManifestBuilder{}
	doc := b.Build(&repository.Entry{
		Package:    &model.Package{Identifier: "A.B"},
		Installers: []*model.Installer{{Version: "1.0", InstallerID: "x"}},
	})
	assert.Equal(t, []any{}, doc["Versions"])
}

func TestStripNulls(t *testing.T) {
	in := map[string]any{
		"a": nil,
		"b": map[string]any{"c": nil, "d": 1},
		"e": []any{map[string]any{"f": nil}, nil},
	}
	assert.Equal(t, map[string]any{
		"b": map[string]any{"d": 1},
		"e": []any{map[string]any{}, nil},
	}, StripNulls(in))
}
