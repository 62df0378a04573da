package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wingetmirror/pkg/hooks"
)

// NewHookCmd creates the hook command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Work with import hook scripts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "template TYPE",
		Short:     "Print a template for an import hook",
		Long:      "Print a Tengo template for a pre-import or post-import hook script.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: hookTypeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookType := hooks.HookType(args[0])
			if !hookType.Valid() {
				return fmt.Errorf("unknown hook type %q, expected one of %s", args[0], strings.Join(hookTypeNames(), ", "))
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), hooks.HookTemplate(hookType))
			return err
		},
	})

	return cmd
}

func hookTypeNames() []string {
	names := make([]string, 0, len(hooks.Types))
	for _, t := range hooks.Types {
		names = append(names, string(t))
	}
	return names
}
