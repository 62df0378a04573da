package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove PACKAGE_ID [INSTALLER_ID]",
		Short: "Remove a package or one of its installers",
		Long: `Remove a package with all its installers from the repository, or only the
installer with the given id.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runRemove,
	}

	return cmd
}

func runRemove(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := repository.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	packageID := args[0]
	unlock, err := store.LockPackage(packageID)
	if err != nil {
		return err
	}
	defer unlock()

	if len(args) == 2 {
		if err := store.RemoveInstaller(packageID, args[1]); err != nil {
			return fmt.Errorf("failed to remove installer: %w", err)
		}
		logger.Success("Installer removed", logger.Fields{"package": packageID, "installer": args[1]})
		return nil
	}

	if err := store.DeletePackage(packageID); err != nil {
		return fmt.Errorf("failed to remove package: %w", err)
	}
	logger.Success("Package removed", logger.Fields{"package": packageID})
	return nil
}
