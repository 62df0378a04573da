package manifest

import (
	"slices"
	"strings"
	"time"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/model"
)

const elevationRequired = "elevationRequired"

// Candidate is an installer extracted from a manifest that has not been downloaded yet.
type Candidate struct {
	Version       string
	URL           string
	SHA256        string
	Architecture  string
	Scope         string
	InstallerType string

	Silent             string
	SilentWithProgress string
	Interactive        string
	Log                string

	ProductCode         string
	RequiresElevation   bool
	InstallModes        []string
	PackageDependencies []string

	NestedInstallerType  string
	NestedInstallerFiles []model.NestedInstallerFile
	ReleaseDate          *time.Time

	// Provenance of the manifest the candidate came from.
	ManifestPath   string
	ManifestSHA256 string
	ManifestText   []byte
}

// VersionString implements version.Candidate.
func (c Candidate) VersionString() string { return c.Version }

// GroupFields implements version.Candidate.
func (c Candidate) GroupFields() (string, string, string) {
	return c.Architecture, c.Scope, c.InstallerType
}

// Filters restrict extraction. Empty lists allow everything. Comparison ignores case.
type Filters struct {
	Architectures  []string
	Scopes         []string
	InstallerTypes []string
}

func (f Filters) allows(arch, scope, typ string) bool {
	return allowed(f.Architectures, arch) && allowed(f.Scopes, scope) && allowed(f.InstallerTypes, typ)
}

func allowed(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, value) })
}

// coalesce returns the first present value, or def.
func coalesce(def string, values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return def
}

func coalesceScalar(values ...*Scalar) string {
	for _, v := range values {
		if v != nil {
			return string(*v)
		}
	}
	return ""
}

func firstNonEmpty[T any](values ...[]T) []T {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func switchField(sel func(*Switches) *string, tiers ...*Switches) string {
	values := make([]*string, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			values = append(values, sel(t))
		}
	}
	return coalesce("", values...)
}

// ExtractInstallers returns the installers of every version in doc that pass the filters
// and have a download URL. Installer fields inherit from the version entry and then from
// the document root; scope defaults to user.
func ExtractInstallers(doc *Document, filters Filters) []Candidate {
	var out []Candidate
	for _, ver := range doc.VersionEntries() {
		versionStr := coalesceScalar(ver.PackageVersion, doc.PackageVersion)

		for _, inst := range ver.Installers {
			tiers := []*Common{&inst.Common, &ver.Common, &doc.Common}

			scope := coalesce(model.ScopeUser, inst.Scope, ver.Scope, doc.Scope)
			typ := coalesce("", inst.InstallerType, ver.InstallerType, doc.InstallerType)

			if !filters.allows(inst.Architecture, scope, typ) {
				logger.Debug("Skipping installer filtered out", logger.Fields{
					"version":        versionStr,
					"architecture":   inst.Architecture,
					"scope":          scope,
					"installer_type": typ,
				})
				continue
			}
			url := coalesce("", inst.InstallerURL)
			if url == "" {
				continue
			}

			switches := []*Switches{inst.InstallerSwitches, ver.InstallerSwitches, doc.InstallerSwitches}
			c := Candidate{
				Version:            versionStr,
				URL:                url,
				SHA256:             coalesce("", inst.InstallerSha256),
				Architecture:       inst.Architecture,
				Scope:              scope,
				InstallerType:      typ,
				Silent:             switchField(func(s *Switches) *string { return s.Silent }, switches...),
				SilentWithProgress: switchField(func(s *Switches) *string { return s.SilentWithProgress }, switches...),
				Interactive:        switchField(func(s *Switches) *string { return s.Interactive }, switches...),
				Log:                switchField(func(s *Switches) *string { return s.Log }, switches...),
				ProductCode:        coalesce("", inst.ProductCode, ver.ProductCode, doc.ProductCode),
				RequiresElevation: coalesce("", inst.ElevationRequirement, ver.ElevationRequirement,
					doc.ElevationRequirement) == elevationRequired,
				InstallModes:        firstNonEmpty(inst.InstallModes, ver.InstallModes, doc.InstallModes),
				NestedInstallerType: coalesce("", inst.NestedInstallerType, ver.NestedInstallerType, doc.NestedInstallerType),
				ReleaseDate:         parseDate(coalesceScalar(inst.ReleaseDate, ver.ReleaseDate, doc.ReleaseDate)),
			}
			for _, f := range firstNonEmpty(inst.NestedInstallerFiles, ver.NestedInstallerFiles, doc.NestedInstallerFiles) {
				c.NestedInstallerFiles = append(c.NestedInstallerFiles, model.NestedInstallerFile{
					RelativeFilePath:     f.RelativeFilePath,
					PortableCommandAlias: f.PortableCommandAlias,
				})
			}
			for _, t := range tiers {
				if t.Dependencies != nil && len(t.Dependencies.PackageDependencies) > 0 {
					for _, d := range t.Dependencies.PackageDependencies {
						c.PackageDependencies = append(c.PackageDependencies, d.PackageIdentifier)
					}
					break
				}
			}
			out = append(out, c)
		}
	}
	return out
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
