package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/vault"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	clearScope vault.Scope
	clearYes   bool
)

func init() {
	clearCmd.Flags().VarP(&clearScope, "scope", "s", "what to remove: both, master or credentials")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func resetClearCommandState() {
	clearScope = vault.ScopeBoth
	clearYes = false
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the master key, the stored credentials, or both",
	Long: `Deletes vault files. This cannot be undone.

  --scope both         master key record, credentials and config (default)
  --scope master       master key record and config; stored fields become unreadable
  --scope credentials  stored fields only; the master key is kept

Examples:
  credvault clear
  credvault clear --scope credentials --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting clear command with scope %s", clearScope)

		if !clearYes {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("Warning:")+" This permanently deletes the "+ui.Highlight.Sprint(clearScope.String())+" vault data.")
			if !confirm(cmd, nil, "Do you want to continue?") {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("⚠")+" Aborted")
				return nil
			}
		}

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Clearing vault...")
		defer cleanup()

		result, err := workflows.Clear(context.Background(), env, workflows.ClearOptions{Scope: clearScope})
		if err != nil {
			spinner.Stop()
			return reportError(cmd, err)
		}

		msg := ui.Success.Sprint("✓") + " Cleared " + ui.Highlight.Sprint(result.Scope.String())
		if result.RemovedFields > 0 {
			msg += fmt.Sprintf(" (%d field(s) removed)", result.RemovedFields)
		}
		if result.ConfigRemoved {
			msg += "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault init") + " to create a new vault"
		}
		spinner.FinalMSG = msg
		return nil
	},
}
