package rest

import (
	"net/url"
	"sort"
	"strings"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
)

const (
	defaultLicense   = "Proprietary"
	defaultLocale    = "en-US"
	customLauncher   = "install.bat"
	elevationNeeded  = "elevationRequired"
	elevationDefault = "none"
)

// InstallerFiles resolves the file served for an installer. *repository.Store implements it.
type InstallerFiles interface {
	InstallerPath(packageID, installerID string) (string, error)
}

// ManifestBuilder renders stored packages as protocol manifests.
type ManifestBuilder struct {
	// BaseURL is the public root installer URLs are built on.
	BaseURL string
	// Files is used to hash installers without a recorded SHA-256. Optional.
	Files InstallerFiles
}

// InstallerURL returns the download URL of an installer.
func (b *ManifestBuilder) InstallerURL(packageID, installerID string) string {
	return strings.TrimRight(b.BaseURL, "/") + "/winget/packages/" + url.PathEscape(packageID) +
		"/versions/" + url.PathEscape(installerID) + "/installer"
}

// Build renders entry. Versions are ordered by plain string comparison, newest first.
// Installers without a resolvable SHA-256 are left out, as are versions left without
// installers. Null values are removed from the result.
func (b *ManifestBuilder) Build(entry *repository.Entry) map[string]any {
	pkg := entry.Package
	byVersion := make(map[string][]*model.Installer)
	var versions []string
	for _, inst := range entry.Installers {
		if _, seen := byVersion[inst.Version]; !seen {
			versions = append(versions, inst.Version)
		}
		byVersion[inst.Version] = append(byVersion[inst.Version], inst)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))

	out := []any{}
	for _, v := range versions {
		group := byVersion[v]
		installers := []any{}
		for _, inst := range group {
			if rendered := b.installer(pkg.Identifier, inst); rendered != nil {
				installers = append(installers, rendered)
			}
		}
		if len(installers) == 0 {
			continue
		}
		out = append(out, map[string]any{
			"PackageVersion": v,
			"Channel":        nil,
			"DefaultLocale":  defaultLocaleFor(pkg, group[0]),
			"Locales":        []any{},
			"Installers":     installers,
		})
	}

	return StripNulls(map[string]any{
		"PackageIdentifier": pkg.Identifier,
		"Versions":          out,
	}).(map[string]any)
}

func defaultLocaleFor(pkg *model.Package, first *model.Installer) map[string]any {
	license := pkg.License
	if license == "" {
		license = defaultLicense
	}
	desc := pkg.ShortDescription
	if desc == "" {
		desc = pkg.Name + " installer"
	}
	var tags any
	if len(pkg.Tags) > 0 {
		tags = pkg.Tags
	}
	return map[string]any{
		"PackageLocale":       defaultLocale,
		"Publisher":           pkg.Publisher,
		"PublisherUrl":        optional(pkg.Homepage),
		"PublisherSupportUrl": optional(pkg.SupportURL),
		"PrivacyUrl":          nil,
		"Author":              pkg.Publisher,
		"PackageName":         pkg.Name,
		"PackageUrl":          optional(pkg.Homepage),
		"License":             license,
		"LicenseUrl":          nil,
		"Copyright":           nil,
		"CopyrightUrl":        nil,
		"ShortDescription":    desc,
		"Description":         nil,
		"Tags":                tags,
		"ReleaseNotes":        optional(first.ReleaseNotes),
		"ReleaseNotesUrl":     nil,
		"Agreements":          []any{},
		"PurchaseUrl":         nil,
		"InstallationNotes":   nil,
		"Documentations":      []any{},
		"Icons":               []any{},
		"Moniker":             nil,
	}
}

func (b *ManifestBuilder) installer(packageID string, inst *model.Installer) map[string]any {
	sha := b.sha256(packageID, inst)
	if sha == "" {
		logger.Debug("Installer has no SHA-256, not advertised", logger.Fields{"package": packageID, "installer": inst.InstallerID})
		return nil
	}

	id := inst.InstallerID
	if id == "" {
		id = inst.Version + "-" + inst.Architecture + "-" + inst.EffectiveScope()
	}

	typ := inst.InstallerType
	var nestedType any
	nestedFiles := []any{}
	switch inst.InstallerType {
	case model.InstallerTypeCustom:
		typ = model.InstallerTypeZip
		nestedType = model.InstallerTypeExe
		nestedFiles = append(nestedFiles, map[string]any{
			"RelativeFilePath":     customLauncher,
			"PortableCommandAlias": nil,
		})
	case model.InstallerTypeZip:
		nestedType = optional(inst.NestedInstallerType)
		for _, f := range inst.NestedInstallerFiles {
			nestedFiles = append(nestedFiles, map[string]any{
				"RelativeFilePath":     f.RelativeFilePath,
				"PortableCommandAlias": optional(f.PortableCommandAlias),
			})
		}
	}

	deps := []any{}
	for _, d := range inst.PackageDependencies {
		deps = append(deps, map[string]any{"PackageIdentifier": d})
	}

	elevation := elevationDefault
	if inst.RequiresElevation {
		elevation = elevationNeeded
	}
	silentWithProgress := inst.SilentWithProgressArguments
	if silentWithProgress == "" {
		silentWithProgress = inst.SilentArguments
	}
	var releaseDate any
	if inst.ReleaseDate != nil {
		releaseDate = inst.ReleaseDate.Format("2006-01-02")
	}

	return map[string]any{
		"InstallerIdentifier": id,
		"InstallerSha256":     sha,
		"InstallerUrl":        b.InstallerURL(packageID, id),
		"Architecture":        inst.Architecture,
		"InstallerLocale":     defaultLocale,
		"Platform":            []string{"Windows.Desktop"},
		"MinimumOSVersion":    "10.0.0.0",
		"InstallerType":       typ,
		"Scope":               optional(inst.Scope),
		"SignatureSha256":     nil,
		"InstallModes":        inst.InstallModes(),
		"InstallerSwitches": map[string]any{
			"Silent":             optional(inst.SilentArguments),
			"SilentWithProgress": optional(silentWithProgress),
			"Interactive":        optional(inst.InteractiveArguments),
			"InstallLocation":    nil,
			"Log":                optional(inst.LogArguments),
			"Upgrade":            nil,
			"Custom":             nil,
			"Repair":             nil,
		},
		"InstallerSuccessCodes": []any{},
		"ExpectedReturnCodes":   []any{},
		"UpgradeBehavior":       "install",
		"Commands":              []any{},
		"Protocols":             []any{},
		"FileExtensions":        []any{},
		"Dependencies": map[string]any{
			"WindowsFeatures":      []any{},
			"WindowsLibraries":     []any{},
			"PackageDependencies":  deps,
			"ExternalDependencies": []any{},
		},
		"PackageFamilyName":           nil,
		"ProductCode":                 optional(inst.ProductCode),
		"Capabilities":                []any{},
		"RestrictedCapabilities":      []any{},
		"MSStoreProductIdentifier":    nil,
		"InstallerAbortsTerminal":     false,
		"ReleaseDate":                 releaseDate,
		"InstallLocationRequired":     false,
		"RequireExplicitUpgrade":      false,
		"ElevationRequirement":        elevation,
		"UnsupportedOSArchitectures":  []any{},
		"AppsAndFeaturesEntries":      []any{},
		"Markets":                     nil,
		"NestedInstallerType":         nestedType,
		"NestedInstallerFiles":        nestedFiles,
		"DisplayInstallWarnings":      false,
		"UnsupportedArguments":        []any{},
		"InstallationMetadata":        map[string]any{"DefaultInstallLocation": nil, "Files": []any{}},
		"DownloadCommandProhibited":   false,
		"RepairBehavior":              "installer",
		"ArchiveBinariesDependOnPath": false,
		"Authentication": map[string]any{
			"AuthenticationType":                "none",
			"MicrosoftEntraIdAuthenticationInfo": nil,
		},
	}
}

// sha256 returns the recorded hash or hashes the served file.
func (b *ManifestBuilder) sha256(packageID string, inst *model.Installer) string {
	if inst.SHA256 != "" {
		return inst.SHA256
	}
	if b.Files == nil || inst.InstallerID == "" {
		return ""
	}
	p, err := b.Files.InstallerPath(packageID, inst.InstallerID)
	if err != nil {
		return ""
	}
	sum, err := fsutil.HashFile(p)
	if err != nil {
		logger.Debug("Could not hash installer", logger.Fields{"path": p, "error": err})
		return ""
	}
	return sum
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// StripNulls removes nil map values recursively. Lists keep their length.
func StripNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = StripNulls(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = StripNulls(val)
		}
		return out
	default:
		return v
	}
}
