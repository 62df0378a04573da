// Package manifest fetches upstream manifest documents and extracts installer
// candidates from them.
package manifest

import (
	"gopkg.in/yaml.v3"
)

// Scalar is a YAML scalar kept exactly as written, whatever type YAML would infer.
// Upstream versions such as 1.10 would otherwise decode as floats.
type Scalar string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag != "!!null" {
		*s = Scalar(node.Value)
	}
	return nil
}

// Switches are the installer command line switches.
type Switches struct {
	Silent             *string `yaml:"Silent"`
	SilentWithProgress *string `yaml:"SilentWithProgress"`
	Interactive        *string `yaml:"Interactive"`
	Log                *string `yaml:"Log"`
}

// NestedFile is an entry of NestedInstallerFiles.
type NestedFile struct {
	RelativeFilePath     string `yaml:"RelativeFilePath"`
	PortableCommandAlias string `yaml:"PortableCommandAlias"`
}

// PackageDependency is an entry of Dependencies.PackageDependencies.
type PackageDependency struct {
	PackageIdentifier string `yaml:"PackageIdentifier"`
	MinimumVersion    Scalar `yaml:"MinimumVersion"`
}

// Dependencies lists what an installer needs.
type Dependencies struct {
	PackageDependencies []PackageDependency `yaml:"PackageDependencies"`
}

// Common holds the fields that may appear on an installer, a version entry or the
// document root. The most specific non-absent value wins.
type Common struct {
	Scope                *string       `yaml:"Scope"`
	InstallerType        *string       `yaml:"InstallerType"`
	InstallerSwitches    *Switches     `yaml:"InstallerSwitches"`
	InstallModes         []string      `yaml:"InstallModes"`
	ProductCode          *string       `yaml:"ProductCode"`
	ElevationRequirement *string       `yaml:"ElevationRequirement"`
	ReleaseDate          *Scalar       `yaml:"ReleaseDate"`
	NestedInstallerType  *string       `yaml:"NestedInstallerType"`
	NestedInstallerFiles []NestedFile  `yaml:"NestedInstallerFiles"`
	Dependencies         *Dependencies `yaml:"Dependencies"`
}

// Installer is one entry of Installers.
type Installer struct {
	Common          `yaml:",inline"`
	Architecture    string  `yaml:"Architecture"`
	InstallerURL    *string `yaml:"InstallerUrl"`
	InstallerSha256 *string `yaml:"InstallerSha256"`
}

// Version is one entry of Versions, or the document itself for single version manifests.
type Version struct {
	Common         `yaml:",inline"`
	PackageVersion *Scalar     `yaml:"PackageVersion"`
	Installers     []Installer `yaml:"Installers"`
}

// Document is a parsed upstream manifest.
type Document struct {
	Version           `yaml:",inline"`
	PackageIdentifier string    `yaml:"PackageIdentifier"`
	Versions          []Version `yaml:"Versions"`
}

// Parse decodes a manifest document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// VersionEntries returns the version entries of the document. A document without
// Versions but with Installers describes a single version.
func (d *Document) VersionEntries() []Version {
	if len(d.Versions) > 0 {
		return d.Versions
	}
	if d.Installers != nil {
		return []Version{d.Version}
	}
	return nil
}
