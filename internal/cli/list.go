package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/version"
)

type listedPackage struct {
	ID         string   `json:"package_identifier"`
	Name       string   `json:"package_name"`
	Publisher  string   `json:"publisher"`
	Cached     bool     `json:"cached"`
	AutoUpdate bool     `json:"auto_update"`
	Versions   []string `json:"versions"`
	Installers int      `json:"installers"`
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var cachedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages in the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, cachedOnly)
		},
	}

	cmd.Flags().BoolVar(&cachedOnly, "cached", false, "only list packages imported from upstream")

	return cmd
}

func runList(cmd *cobra.Command, cachedOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := repository.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	packages := []listedPackage{}
	for _, e := range store.AllPackages() {
		if cachedOnly && !e.Package.Cached {
			continue
		}
		versions := e.Versions()
		if versions == nil {
			versions = []string{}
		}
		version.SortDescending(versions)
		packages = append(packages, listedPackage{
			ID:         e.Package.Identifier,
			Name:       e.Package.Name,
			Publisher:  e.Package.Publisher,
			Cached:     e.Package.Cached,
			AutoUpdate: e.Package.CacheSettings != nil && e.Package.CacheSettings.AutoUpdate,
			Versions:   versions,
			Installers: len(e.Installers),
		})
	}

	out := cmd.OutOrStdout()
	if isJSON(cfg) {
		return printJSON(out, packages)
	}
	if len(packages) == 0 {
		_, _ = fmt.Fprintln(out, "No packages in the repository")
		return nil
	}

	tw := newTable(out, "ID", "NAME", "SOURCE", "AUTO UPDATE", "VERSIONS")
	for _, p := range packages {
		source := "owned"
		if p.Cached {
			source = "cached"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			p.ID, truncate(p.Name, MaxNameLength), source, p.AutoUpdate, strings.Join(p.Versions, ", "))
	}
	return tw.Flush()
}
