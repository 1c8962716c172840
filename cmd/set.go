package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	setForce bool
	setStdin bool
)

func init() {
	setCmd.Flags().BoolVarP(&setForce, "force", "f", false, "overwrite an existing field without asking")
	setCmd.Flags().BoolVar(&setStdin, "stdin", false, "read the value from standard input")
}

func resetSetCommandState() {
	setForce = false
	setStdin = false
}

var setCmd = &cobra.Command{
	Use:   "set <field> [value]",
	Short: "Encrypt and store a credential",
	Long: `Encrypts a value under the vault's master key and stores it as <field>.

The value can be given as an argument, piped with --stdin, or typed at a
hidden prompt. Passing it as an argument leaves it in your shell history.

Examples:
  credvault set db_password
  echo -n "$TOKEN" | credvault set api_token --stdin
  credvault set smtp_user alice --force`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field := args[0]
		Logger.Infof("Starting set command for field %s", field)

		if err := secrets.ValidateFieldName(field); err != nil {
			return reportError(cmd, err)
		}

		value, err := readSetValue(cmd, args)
		if err != nil {
			return reportError(cmd, err)
		}
		defer utils.Zero(value)

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		ctx := context.Background()
		opts := workflows.SetOptions{Field: field, Value: string(value), Force: setForce}
		result, err := workflows.Set(ctx, env, opts)
		if errors.Is(err, kerrors.ErrFieldExists) {
			if !confirm(cmd, nil, fmt.Sprintf("Field %s already exists. Overwrite it?", ui.Highlight.Sprint(field))) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("⚠")+" Aborted")
				return nil
			}
			opts.Force = true
			result, err = workflows.Set(ctx, env, opts)
		}
		if err != nil {
			return reportError(cmd, err)
		}

		verb := "stored"
		if result.Overwritten {
			verb = "updated"
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Field "+ui.Highlight.Sprint(result.Field)+" "+verb)
		return nil
	},
}

func readSetValue(cmd *cobra.Command, args []string) ([]byte, error) {
	switch {
	case len(args) == 2:
		if setStdin {
			return nil, fmt.Errorf("cannot combine a value argument with --stdin")
		}
		return []byte(args[1]), nil
	case setStdin:
		Logger.Debugf("Reading value from stdin")
		return utils.ReadAllTrimmed(cmd.InOrStdin())
	default:
		return secretReader("Value: ")
	}
}
