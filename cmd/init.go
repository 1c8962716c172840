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
	initMode            string
	initKDF             string
	initScryptN         int
	initArgon2Time      uint32
	initArgon2Memory    uint32
	initForce           bool
	initYes             bool
	initMasterKeyPath   string
	initCredentialsPath string
)

func init() {
	initCmd.Flags().StringVarP(&initMode, "mode", "m", string(secrets.ModeSystem), "derivation mode: system or passphrase")
	initCmd.Flags().StringVar(&initKDF, "kdf", "scrypt", "key derivation function: scrypt or argon2id")
	initCmd.Flags().IntVar(&initScryptN, "scrypt-n", 0, "scrypt cost parameter N (power of two)")
	initCmd.Flags().Uint32Var(&initArgon2Time, "argon2-time", 0, "argon2id iterations")
	initCmd.Flags().Uint32Var(&initArgon2Memory, "argon2-memory", 0, "argon2id memory in KiB")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "replace an existing vault, destroying stored fields")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "skip the confirmation prompt when forcing")
	initCmd.Flags().StringVar(&initMasterKeyPath, "master-key-path", "", "store the master key record at this path")
	initCmd.Flags().StringVar(&initCredentialsPath, "credentials-path", "", "store the credentials document at this path")
}

func resetInitCommandState() {
	initMode = string(secrets.ModeSystem)
	initKDF = "scrypt"
	initScryptN = 0
	initArgon2Time = 0
	initArgon2Memory = 0
	initForce = false
	initYes = false
	initMasterKeyPath = ""
	initCredentialsPath = ""
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault and its master key",
	Long: `Creates a new vault for the current user.

A random 256-bit master key is generated and wrapped under a key derived from
this machine's identity. With --mode passphrase the wrapping key also depends
on a passphrase you choose, which is asked for on every unlock.

Examples:
  credvault init
  credvault init --mode passphrase
  credvault init --kdf argon2id --argon2-memory 131072
  credvault init --force --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		mode, err := secrets.ParseMode(initMode)
		if err != nil {
			return reportError(cmd, err)
		}

		kdf := configs.KDFConfig{
			Algorithm:    initKDF,
			ScryptN:      initScryptN,
			Argon2Time:   initArgon2Time,
			Argon2Memory: initArgon2Memory,
		}
		if _, err := kdf.Params(); err != nil {
			return reportError(cmd, err)
		}

		if initForce && !initYes {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("Warning:")+" Replacing the vault permanently destroys every stored field.")
			if !confirm(cmd, nil, "Do you want to continue?") {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("⚠")+" Aborted")
				return nil
			}
		}

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Initializing vault...")
		defer cleanup()

		opts := workflows.InitOptions{
			Mode:            mode,
			KDF:             kdf,
			Force:           initForce,
			MasterKeyPath:   initMasterKeyPath,
			CredentialsPath: initCredentialsPath,
		}
		if mode == secrets.ModePassphrase {
			opts.NewPassphrase = func() ([]byte, error) {
				defer pauseSpinner(spinner)()
				return promptNewPassphrase()
			}
		}

		result, err := workflows.Init(context.Background(), env, opts)
		if err != nil {
			spinner.Stop()
			return reportError(cmd, err)
		}

		msg := ui.Success.Sprint("✓") + " Vault " + ui.Highlight.Sprint(result.VaultUUID) + " initialized in " + ui.Highlight.Sprint(string(result.Mode)) + " mode\n" +
			"  Master key:  " + ui.Path.Sprint(result.MasterKeyPath) + "\n" +
			"  Credentials: " + ui.Path.Sprint(result.CredentialsPath) + "\n" +
			"  KDF:         " + result.KDF
		if result.DiscardedFields > 0 {
			msg += "\n" + ui.Warning.Sprint("⚠") + fmt.Sprintf(" Discarded %d previously stored field(s)", result.DiscardedFields)
		}
		msg += "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault set <field>") + " to store a credential"
		spinner.FinalMSG = msg
		return nil
	},
}
