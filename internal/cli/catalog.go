package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/catalog"
)

// NewCatalogCmd creates the catalog command with subcommands.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the upstream catalog snapshot",
	}

	cmd.AddCommand(
		newCatalogRefreshCmd(),
		newCatalogStatusCmd(),
		newCatalogSearchCmd(),
	)

	return cmd
}

func newCatalogRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download the latest catalog snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			status, err := a.refresher.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog refresh failed: %w", err)
			}
			if isJSON(a.cfg) {
				return printJSON(cmd.OutOrStdout(), status)
			}
			logger.Success("Catalog refreshed", logger.Fields{"source": status.SourceURL})
			return nil
		},
	}
}

type catalogStatus struct {
	Available  bool   `json:"available"`
	IndexPath  string `json:"index_path"`
	SourceURL  string `json:"source_url,omitempty"`
	LastPulled string `json:"last_pulled,omitempty"`
}

func newCatalogStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show when the catalog snapshot was last refreshed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := catalog.LoadStatus(cfg.Storage.CatalogDir)
			if err != nil {
				return err
			}
			reader := catalog.NewReader(catalog.IndexPath(cfg.Storage.CatalogDir))
			st := catalogStatus{
				Available: reader.Available(),
				IndexPath: reader.Path(),
				SourceURL: s.SourceURL,
			}
			if !s.LastPulled.IsZero() {
				st.LastPulled = s.LastPulled.Format(time.RFC3339)
			}

			out := cmd.OutOrStdout()
			if isJSON(cfg) {
				return printJSON(out, st)
			}
			_, _ = fmt.Fprintf(out, "Available:   %t\n", st.Available)
			_, _ = fmt.Fprintf(out, "Index:       %s\n", st.IndexPath)
			if st.LastPulled != "" {
				_, _ = fmt.Fprintf(out, "Last pulled: %s\n", st.LastPulled)
				_, _ = fmt.Fprintf(out, "Source:      %s\n", st.SourceURL)
			} else {
				_, _ = fmt.Fprintln(out, "Last pulled: never")
			}
			return nil
		},
	}
}

func newCatalogSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the upstream catalog by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reader := catalog.NewReader(catalog.IndexPath(cfg.Storage.CatalogDir))
			entries, err := reader.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("catalog search failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if isJSON(cfg) {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintf(out, "No catalog packages found matching '%s'\n", args[0])
				return nil
			}
			tw := newTable(out, "ID", "NAME", "LATEST")
			for _, e := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, truncate(e.Name, MaxNameLength), e.LatestVersion)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultSearchLimit, "maximum number of results")

	return cmd
}
