package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/config"
	"github.com/glorpus-work/wingetmirror/pkg/model"
	pkgsync "github.com/glorpus-work/wingetmirror/pkg/sync"
)

type importOptions struct {
	architectures     []string
	scopes            []string
	installerTypes    []string
	mode              string
	versionFilter     string
	versionConstraint string
	noAutoUpdate      bool
	adGroups          []string
}

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import PACKAGE_ID",
		Short: "Import a package from the upstream catalog",
		Long: `Import a package from the upstream catalog into the repository.

Installers are filtered by architecture, scope and installer type. In latest
mode only the newest version is fetched and one installer is kept per
architecture and scope.`,
		Example: `  wingetmirror import Git.Git --arch x64 --scope machine
  wingetmirror import 7zip.7zip --mode all --version-filter "23.*"
  wingetmirror import Mozilla.Firefox --ad-group Developers=machine`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.architectures, "arch", nil, "architectures to import (default: all)")
	cmd.Flags().StringSliceVar(&opts.scopes, "scope", nil, "scopes to import, user or machine (default: all)")
	cmd.Flags().StringSliceVar(&opts.installerTypes, "installer-type", nil, "installer types to import (default: all)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(model.VersionModeLatest), "version mode, latest or all")
	cmd.Flags().StringVar(&opts.versionFilter, "version-filter", "", "glob the versions must match")
	cmd.Flags().StringVar(&opts.versionConstraint, "version-constraint", "", `version constraint such as ">= 2.40, < 3"`)
	cmd.Flags().BoolVar(&opts.noAutoUpdate, "no-auto-update", false, "exclude the package from daily updates")
	cmd.Flags().StringSliceVar(&opts.adGroups, "ad-group", nil, "directory group auto-install rule as GROUP=SCOPE")

	return cmd
}

func (o importOptions) request(packageID string) (pkgsync.Request, error) {
	mode := model.VersionMode(strings.ToLower(o.mode))
	if mode != model.VersionModeLatest && mode != model.VersionModeAll {
		return pkgsync.Request{}, fmt.Errorf("invalid version mode %q, expected latest or all", o.mode)
	}
	if err := config.ValidateCacheSettings(o.versionFilter, o.versionConstraint); err != nil {
		return pkgsync.Request{}, fmt.Errorf("invalid version filter: %w", err)
	}

	settings := model.DefaultCacheSettings()
	settings.Architectures = append(settings.Architectures, o.architectures...)
	settings.Scopes = append(settings.Scopes, o.scopes...)
	settings.InstallerTypes = append(settings.InstallerTypes, o.installerTypes...)
	settings.VersionMode = mode
	settings.VersionFilter = o.versionFilter
	settings.VersionConstraint = o.versionConstraint
	settings.AutoUpdate = !o.noAutoUpdate

	req := pkgsync.Request{PackageID: packageID, Settings: settings}
	for _, rule := range o.adGroups {
		group, scope, ok := strings.Cut(rule, "=")
		if !ok || strings.TrimSpace(group) == "" || strings.TrimSpace(scope) == "" {
			return pkgsync.Request{}, fmt.Errorf("invalid ad group rule %q, expected GROUP=SCOPE", rule)
		}
		req.ADGroupScopes = append(req.ADGroupScopes, model.ADGroupScope{
			ADGroup: strings.TrimSpace(group),
			Scope:   strings.TrimSpace(scope),
		})
	}
	return req, nil
}

func runImport(cmd *cobra.Command, packageID string, opts importOptions) error {
	req, err := opts.request(packageID)
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}

	result, err := a.orchestrator.Import(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", packageID, err)
	}

	out := cmd.OutOrStdout()
	if isJSON(a.cfg) {
		return printJSON(out, result)
	}

	printImportResult(out, result)

	logger.Success("Import finished", logger.Fields{
		"package":  result.PackageID,
		"imported": result.ImportedVersions,
		"errors":   len(result.Errors),
	})
	return nil
}

// printImportResult writes the installer table followed by the errors that did not abort
// the run. Errors may come from manifest fetches or installer downloads.
func printImportResult(out io.Writer, result *pkgsync.Result) {
	tw := newTable(out, "VERSION", "ARCH", "SCOPE", "TYPE", "STATUS", "ERROR")
	for _, r := range result.Installers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Version, r.Architecture, r.Scope, r.InstallerType, r.Status, r.Error)
	}
	_ = tw.Flush()
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(out, "error in version %s: %s\n", e.Version, e.Error)
	}
}
