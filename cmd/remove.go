package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <field>",
	Aliases: []string{"rm"},
	Short:   "Delete a stored credential",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting remove command for field %s", args[0])

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		result, err := workflows.Remove(context.Background(), env, workflows.RemoveOptions{Field: args[0]})
		if err != nil {
			return reportError(cmd, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Field "+ui.Highlight.Sprint(result.Field)+" removed"+
			" "+ui.Muted.Sprintf("%d remaining", result.Remaining))
		return nil
	},
}
