package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstaller_FolderName(t *testing.T) {
	tests := []struct {
		name      string
		installer Installer
		expected  string
	}{
		{
			name:      "with installer id",
			installer: Installer{Version: "2.45.0", Architecture: "x64", Scope: "machine", InstallerID: "abc"},
			expected:  "2.45.0-x64-machine-abc",
		},
		{
			name:      "scope defaults to user",
			installer: Installer{Version: "1.0", Architecture: "x86"},
			expected:  "1.0-x86-user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.installer.FolderName())
		})
	}
}

func TestInstaller_SameTarget(t *testing.T) {
	a := &Installer{Version: "1.0", Architecture: "X64", InstallerType: "MSI"}
	b := &Installer{Version: "1.0", Architecture: "x64", Scope: "User", InstallerType: "msi"}
	c := &Installer{Version: "1.0", Architecture: "x64", Scope: "machine", InstallerType: "msi"}

	assert.True(t, a.SameTarget(b))
	assert.False(t, a.SameTarget(c))
}

func TestInstaller_InstallModes(t *testing.T) {
	off := false
	assert.Equal(t, []string{"interactive", "silent", "silentWithProgress"}, (&Installer{}).InstallModes())
	assert.Equal(t, []string{"interactive", "silentWithProgress"}, (&Installer{InstallModeSilent: &off}).InstallModes())
	assert.Empty(t, (&Installer{
		InstallModeInteractive:        &off,
		InstallModeSilent:             &off,
		InstallModeSilentWithProgress: &off,
	}).InstallModes())
}

func TestInstaller_ServedFile(t *testing.T) {
	assert.Equal(t, "setup.exe", (&Installer{InstallerType: "exe", InstallerFile: "setup.exe"}).ServedFile())
	assert.Equal(t, CustomPackageFile, (&Installer{InstallerType: InstallerTypeCustom, InstallerFile: "setup.exe"}).ServedFile())
}

func TestPackage_CloneIsDeep(t *testing.T) {
	settings := DefaultCacheSettings()
	settings.Architectures = []string{"x64"}
	p := &Package{Identifier: "Git.Git", Tags: []string{"vcs"}, CacheSettings: &settings}

	c := p.Clone()
	c.Tags[0] = "changed"
	c.CacheSettings.Architectures[0] = "arm64"

	assert.Equal(t, "vcs", p.Tags[0])
	assert.Equal(t, "x64", p.CacheSettings.Architectures[0])
}
