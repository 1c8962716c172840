package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/configs"
	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	rotateMode         string
	rotateKDF          string
	rotateScryptN      int
	rotateArgon2Time   uint32
	rotateArgon2Memory uint32
)

func init() {
	rotateCmd.Flags().StringVarP(&rotateMode, "mode", "m", "", "switch derivation mode: system or passphrase")
	rotateCmd.Flags().StringVar(&rotateKDF, "kdf", "", "switch key derivation function: scrypt or argon2id")
	rotateCmd.Flags().IntVar(&rotateScryptN, "scrypt-n", 0, "scrypt cost parameter N (power of two)")
	rotateCmd.Flags().Uint32Var(&rotateArgon2Time, "argon2-time", 0, "argon2id iterations")
	rotateCmd.Flags().Uint32Var(&rotateArgon2Memory, "argon2-memory", 0, "argon2id memory in KiB")
}

func resetRotateCommandState() {
	rotateMode = ""
	rotateKDF = ""
	rotateScryptN = 0
	rotateArgon2Time = 0
	rotateArgon2Memory = 0
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Re-wrap the master key under a fresh salt",
	Long: `Unwraps the master key with the current key source and wraps it again under
a fresh salt. Use it to change the passphrase, switch between system and
passphrase mode, or raise the KDF cost. Stored fields are not re-encrypted.

Examples:
  credvault rotate
  credvault rotate --mode passphrase
  credvault rotate --kdf argon2id`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rotate command")

		opts := workflows.RotateOptions{}
		if rotateMode != "" {
			mode, err := secrets.ParseMode(rotateMode)
			if err != nil {
				return reportError(cmd, err)
			}
			opts.NewMode = mode
		}

		if rotateKDF != "" || rotateScryptN != 0 || rotateArgon2Time != 0 || rotateArgon2Memory != 0 {
			kdf := &configs.KDFConfig{
				Algorithm:    rotateKDF,
				ScryptN:      rotateScryptN,
				Argon2Time:   rotateArgon2Time,
				Argon2Memory: rotateArgon2Memory,
			}
			if _, err := kdf.Params(); err != nil {
				return reportError(cmd, err)
			}
			opts.KDF = kdf
		}

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Rotating master key...")
		defer cleanup()

		env.Passphrase = func() ([]byte, error) {
			defer pauseSpinner(spinner)()
			return promptPassphrase()
		}
		opts.NewPassphrase = func() ([]byte, error) {
			defer pauseSpinner(spinner)()
			return promptNewPassphrase()
		}

		result, err := workflows.Rotate(context.Background(), env, opts)
		if err != nil {
			spinner.Stop()
			return reportError(cmd, err)
		}

		msg := ui.Success.Sprint("✓") + " Master key re-wrapped"
		if result.OldMode != result.NewMode {
			msg += fmt.Sprintf(" (%s → %s)", result.OldMode, result.NewMode)
		}
		msg += "\n  KDF: " + result.KDF
		spinner.FinalMSG = msg
		return nil
	},
}
