package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/internal/logger"
)

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update cached packages",
		Long: `Refresh the catalog snapshot and re-import every cached package with auto
update enabled whose upstream latest version differs from the newest local one.`,
		Args: cobra.NoArgs,
		RunE: runUpdate,
	}

	return cmd
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	summary, err := a.updater.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON(a.cfg) {
		return printJSON(out, summary)
	}

	_, _ = fmt.Fprintf(out, "Checked:    %d\n", summary.Checked)
	_, _ = fmt.Fprintf(out, "Updated:    %s\n", strings.Join(summary.Updated, ", "))
	_, _ = fmt.Fprintf(out, "Up to date: %s\n", strings.Join(summary.UpToDate, ", "))
	_, _ = fmt.Fprintf(out, "Failed:     %s\n", strings.Join(summary.Failed, ", "))

	if len(summary.Failed) > 0 {
		logger.Warn("Some packages failed to update", logger.Fields{"failed": len(summary.Failed)})
	} else {
		logger.Success("Cached packages updated", logger.Fields{"updated": len(summary.Updated)})
	}
	return nil
}
