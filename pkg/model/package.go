// Package model holds the records persisted by the repository store and shared by the
// sync and serving paths.
package model

import "slices"

// VersionMode controls how many upstream versions an import keeps.
type VersionMode string

const (
	VersionModeLatest VersionMode = "latest"
	VersionModeAll    VersionMode = "all"
)

// Scopes.
const (
	ScopeUser    = "user"
	ScopeMachine = "machine"
)

// CacheSettings are the filters remembered for a package imported from upstream.
// Empty lists mean no filter.
type CacheSettings struct {
	Architectures     []string    `json:"architectures"`
	Scopes            []string    `json:"scopes"`
	InstallerTypes    []string    `json:"installer_types"`
	VersionMode       VersionMode `json:"version_mode"`
	VersionFilter     string      `json:"version_filter,omitempty"`
	VersionConstraint string      `json:"version_constraint,omitempty"`
	AutoUpdate        bool        `json:"auto_update"`
}

// DefaultCacheSettings imports the latest version of everything and keeps it updated.
func DefaultCacheSettings() CacheSettings {
	return CacheSettings{
		Architectures:  []string{},
		Scopes:         []string{},
		InstallerTypes: []string{},
		VersionMode:    VersionModeLatest,
		AutoUpdate:     true,
	}
}

// ADGroupScope targets a package at members of a directory group.
type ADGroupScope struct {
	ADGroup string `json:"ad_group"`
	Scope   string `json:"scope"`
}

// Package is the package level record. Identifier is immutable once created.
type Package struct {
	Identifier       string         `json:"package_identifier"`
	Name             string         `json:"package_name"`
	Publisher        string         `json:"publisher"`
	ShortDescription string         `json:"short_description,omitempty"`
	License          string         `json:"license,omitempty"`
	Tags             []string       `json:"tags"`
	Homepage         string         `json:"homepage,omitempty"`
	SupportURL       string         `json:"support_url,omitempty"`
	ADGroupScopes    []ADGroupScope `json:"ad_group_scopes"`
	Cached           bool           `json:"cached"`
	CacheSettings    *CacheSettings `json:"cache_settings,omitempty"`
	IsExample        bool           `json:"is_example,omitempty"`
}

// Clone returns a deep copy.
func (p *Package) Clone() *Package {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.ADGroupScopes = slices.Clone(p.ADGroupScopes)
	if p.CacheSettings != nil {
		cs := *p.CacheSettings
		cs.Architectures = slices.Clone(cs.Architectures)
		cs.Scopes = slices.Clone(cs.Scopes)
		cs.InstallerTypes = slices.Clone(cs.InstallerTypes)
		c.CacheSettings = &cs
	}
	return &c
}
