package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <field>",
	Short: "Decrypt and print a credential",
	Long: `Decrypts <field> and writes the plaintext to standard output, followed by a
newline, so it can be captured with $(credvault get <field>).

Examples:
  credvault get db_password
  export API_TOKEN="$(credvault get api_token)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting get command for field %s", args[0])

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		result, err := workflows.Get(context.Background(), env, workflows.GetOptions{Field: args[0]})
		if err != nil {
			return reportError(cmd, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Value)
		return nil
	},
}
