package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored field names",
	Long: `Lists the names of stored fields in sorted order. Values are not decrypted
and the master key is not unlocked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		result, err := workflows.List(context.Background(), env, workflows.ListOptions{})
		if err != nil {
			return reportError(cmd, err)
		}

		out := cmd.OutOrStdout()
		if len(result.Fields) == 0 {
			fmt.Fprintln(out, ui.Muted.Sprint("No fields stored"))
			fmt.Fprintln(out, ui.Info.Sprint("→")+" Run "+ui.Code.Sprint("credvault set <field>")+" to store one")
			return nil
		}
		for _, field := range result.Fields {
			fmt.Fprintln(out, field)
		}
		return nil
	},
}
