package model

import (
	"slices"
	"strings"
	"time"
)

// Installer types with special handling on the serving side.
const (
	InstallerTypeCustom = "custom"
	InstallerTypeZip    = "zip"
	InstallerTypeExe    = "exe"
)

// CustomPackageFile is the archive served for custom installers.
const CustomPackageFile = "package.zip"

// NestedInstallerFile points at an installer inside a zip installer.
type NestedInstallerFile struct {
	RelativeFilePath     string `json:"relative_file_path"`
	PortableCommandAlias string `json:"portable_command_alias,omitempty"`
}

// Installer is one installer of a package version, stored as version.json.
type Installer struct {
	Version       string `json:"version"`
	Architecture  string `json:"architecture"`
	Scope         string `json:"scope,omitempty"`
	InstallerID   string `json:"installer_guid,omitempty"`
	InstallerType string `json:"installer_type"`
	InstallerFile string `json:"installer_file,omitempty"`
	SHA256        string `json:"installer_sha256,omitempty"`

	SilentArguments             string `json:"silent_arguments,omitempty"`
	SilentWithProgressArguments string `json:"silent_with_progress_arguments,omitempty"`
	InteractiveArguments        string `json:"interactive_arguments,omitempty"`
	LogArguments                string `json:"log_arguments,omitempty"`

	ProductCode string `json:"product_code,omitempty"`

	// Install modes default to enabled when absent.
	InstallModeInteractive        *bool `json:"install_mode_interactive,omitempty"`
	InstallModeSilent             *bool `json:"install_mode_silent,omitempty"`
	InstallModeSilentWithProgress *bool `json:"install_mode_silent_with_progress,omitempty"`

	RequiresElevation   bool     `json:"requires_elevation"`
	PackageDependencies []string `json:"package_dependencies"`

	NestedInstallerType  string                `json:"nested_installer_type,omitempty"`
	NestedInstallerFiles []NestedInstallerFile `json:"nested_installer_files"`

	ReleaseDate  *time.Time `json:"release_date,omitempty"`
	ReleaseNotes string     `json:"release_notes,omitempty"`

	UpstreamManifestPath   string `json:"upstream_manifest_path,omitempty"`
	UpstreamManifestSHA256 string `json:"upstream_manifest_sha256,omitempty"`

	// StoragePath is the installer directory relative to the data dir. Not persisted.
	StoragePath string `json:"-"`
}

// EffectiveScope returns the scope, defaulting to user.
func (i *Installer) EffectiveScope() string {
	if i.Scope == "" {
		return ScopeUser
	}
	return i.Scope
}

// FolderName is the storage directory name: version-arch-scope[-installerId].
func (i *Installer) FolderName() string {
	name := i.Version + "-" + i.Architecture + "-" + i.EffectiveScope()
	if i.InstallerID != "" {
		name += "-" + i.InstallerID
	}
	return name
}

// SameTarget reports whether both installers cover the same version, architecture,
// scope and installer type, ignoring case.
func (i *Installer) SameTarget(o *Installer) bool {
	return strings.EqualFold(i.Version, o.Version) &&
		strings.EqualFold(i.Architecture, o.Architecture) &&
		strings.EqualFold(i.EffectiveScope(), o.EffectiveScope()) &&
		strings.EqualFold(i.InstallerType, o.InstallerType)
}

// ServedFile is the file name served for the installer.
func (i *Installer) ServedFile() string {
	if i.InstallerType == InstallerTypeCustom {
		return CustomPackageFile
	}
	return i.InstallerFile
}

// InstallModes lists the enabled install modes in protocol order.
func (i *Installer) InstallModes() []string {
	modes := []string{}
	if enabled(i.InstallModeInteractive) {
		modes = append(modes, "interactive")
	}
	if enabled(i.InstallModeSilent) {
		modes = append(modes, "silent")
	}
	if enabled(i.InstallModeSilentWithProgress) {
		modes = append(modes, "silentWithProgress")
	}
	return modes
}

func enabled(b *bool) bool { return b == nil || *b }

// Clone returns a deep copy.
func (i *Installer) Clone() *Installer {
	if i == nil {
		return nil
	}
	c := *i
	c.PackageDependencies = slices.Clone(i.PackageDependencies)
	c.NestedInstallerFiles = slices.Clone(i.NestedInstallerFiles)
	if i.ReleaseDate != nil {
		d := *i.ReleaseDate
		c.ReleaseDate = &d
	}
	return &c
}
