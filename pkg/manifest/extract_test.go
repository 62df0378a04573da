package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/wingetmirror/pkg/model"
)

const singleVersion = `PackageIdentifier: Git.Git
PackageVersion: 2.45.1
InstallerType: inno
Scope: machine
InstallerSwitches:
  Silent: /VERYSILENT
  Log: /LOG="<LOGPATH>"
ReleaseDate: 2024-05-14
Installers:
- Architecture: x64
  InstallerUrl: https://example.com/Git-2.45.1-64-bit.exe
  InstallerSha256: AAAA
  InstallerSwitches:
    Interactive: /SP-
- Architecture: arm64
  Scope: user
  InstallerType: portable
  InstallerUrl: https://example.com/PortableGit-arm64.exe
  InstallerSha256: BBBB
  ElevationRequirement: elevationRequired
  InstallModes: [silent]
  Dependencies:
    PackageDependencies:
    - PackageIdentifier: Microsoft.VCRedist.2015+.x64
- Architecture: x86
  InstallerSha256: CCCC
`

const multiVersion = `PackageIdentifier: Vendor.Tool
Scope: machine
Versions:
- PackageVersion: 1.10
  InstallerType: msi
  ProductCode: "{PC-110}"
  Installers:
  - Architecture: x64
    InstallerUrl: https://example.com/tool-1.10.msi
  - Architecture: x64
    Scope: User
    InstallerUrl: https://example.com/tool-1.10-user.msi
- PackageVersion: 1.9
  Installers:
  - Architecture: x86
    InstallerType: zip
    InstallerUrl: https://example.com/tool-1.9.zip
    NestedInstallerType: portable
    NestedInstallerFiles:
    - RelativeFilePath: tool/tool.exe
      PortableCommandAlias: tool
`

func TestExtractInstallers_SingleVersion(t *testing.T) {
	doc, err := Parse([]byte(singleVersion))
	require.NoError(t, err)

	got := ExtractInstallers(doc, Filters{})
	require.Len(t, got, 2, "installer without url is dropped")

	x64 := got[0]
	assert.Equal(t, "2.45.1", x64.Version)
	assert.Equal(t, "x64", x64.Architecture)
	assert.Equal(t, "machine", x64.Scope)
	assert.Equal(t, "inno", x64.InstallerType)
	assert.Equal(t, "AAAA", x64.SHA256)
	assert.Equal(t, "/VERYSILENT", x64.Silent)
	assert.Equal(t, "/SP-", x64.Interactive, "installer switches win over root")
	assert.Equal(t, `/LOG="<LOGPATH>"`, x64.Log)
	assert.False(t, x64.RequiresElevation)
	require.NotNil(t, x64.ReleaseDate)
	assert.Equal(t, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), *x64.ReleaseDate)

	arm := got[1]
	assert.Equal(t, "user", arm.Scope)
	assert.Equal(t, "portable", arm.InstallerType)
	assert.True(t, arm.RequiresElevation)
	assert.Equal(t, []string{"silent"}, arm.InstallModes)
	assert.Equal(t, []string{"Microsoft.VCRedist.2015+.x64"}, arm.PackageDependencies)
}

func TestExtractInstallers_MultiVersion(t *testing.T) {
	doc, err := Parse([]byte(multiVersion))
	require.NoError(t, err)

	got := ExtractInstallers(doc, Filters{})
	require.Len(t, got, 3)

	assert.Equal(t, "1.10", got[0].Version, "versions keep their written form")
	assert.Equal(t, "machine", got[0].Scope, "scope inherited from document root")
	assert.Equal(t, "msi", got[0].InstallerType, "type inherited from version entry")
	assert.Equal(t, "{PC-110}", got[0].ProductCode)
	assert.Equal(t, "User", got[1].Scope)

	zip := got[2]
	assert.Equal(t, "1.9", zip.Version)
	assert.Equal(t, "zip", zip.InstallerType)
	assert.Equal(t, "portable", zip.NestedInstallerType)
	assert.Equal(t, []model.NestedInstallerFile{{RelativeFilePath: "tool/tool.exe", PortableCommandAlias: "tool"}}, zip.NestedInstallerFiles)
}

func TestExtractInstallers_Filters(t *testing.T) {
	doc, err := Parse([]byte(multiVersion))
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters Filters
		wantURL []string
	}{
		{
			name:    "architecture",
			filters: Filters{Architectures: []string{"X86"}},
			wantURL: []string{"https://example.com/tool-1.9.zip"},
		},
		{
			name:    "scope ignores case",
			filters: Filters{Scopes: []string{"user"}},
			wantURL: []string{"https://example.com/tool-1.10-user.msi"},
		},
		{
			name:    "installer type",
			filters: Filters{InstallerTypes: []string{"MSI"}},
			wantURL: []string{"https://example.com/tool-1.10.msi", "https://example.com/tool-1.10-user.msi"},
		},
		{
			name:    "all filters must pass",
			filters: Filters{Architectures: []string{"x86"}, InstallerTypes: []string{"msi"}},
			wantURL: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var urls []string
			for _, c := range ExtractInstallers(doc, tt.filters) {
				urls = append(urls, c.URL)
			}
			assert.Equal(t, tt.wantURL, urls)
		})
	}
}

func TestExtractInstallers_DefaultScopeAndNoInstallers(t *testing.T) {
	doc, err := Parse([]byte("PackageIdentifier: A.B\nPackageVersion: 1.0\nInstallers:\n- Architecture: x64\n  InstallerUrl: https://example.com/a.exe\n"))
	require.NoError(t, err)
	got := ExtractInstallers(doc, Filters{Scopes: []string{"user"}})
	require.Len(t, got, 1)
	assert.Equal(t, "user", got[0].Scope)
	assert.Empty(t, got[0].InstallerType)

	empty, err := Parse([]byte("PackageIdentifier: A.B\nPackageVersion: 1.0\n"))
	require.NoError(t, err)
	assert.Empty(t, ExtractInstallers(empty, Filters{}))
}
