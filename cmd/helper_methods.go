package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPassphrase supplies the passphrase non-interactively when set.
const EnvPassphrase = "CREDVAULT_PASSPHRASE"

// Terminal readers, swapped out in tests.
var (
	passphraseReader    = utils.ReadPassphrase
	newPassphraseReader = utils.ReadNewPassphrase
	secretReader        = utils.ReadPassphrase
)

// startSpinner creates and starts a spinner on stderr unless verbose or debug
// output is enabled. Returns the spinner and a cleanup function that should be
// deferred.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup
// function calls ui.EnsureNewline() on the final message and prints it to the
// command's stdout.
func startSpinner(cmd *cobra.Command, message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	quiet := !verbose && !debug
	if quiet {
		s.Start()
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(cmd.OutOrStdout(), finalMsg)
		}
	}

	return s, cleanup
}

// newEnv builds the workflow environment for the current user.
func newEnv() (workflows.Env, error) {
	settings, err := configs.LoadSettings()
	if err != nil {
		return workflows.Env{}, err
	}

	return workflows.Env{
		Settings:   settings,
		Logger:     Logger,
		Passphrase: promptPassphrase,
	}, nil
}

// promptPassphrase reads the current passphrase from the environment or the terminal.
func promptPassphrase() ([]byte, error) {
	if p, ok := os.LookupEnv(EnvPassphrase); ok {
		Logger.Debugf("Using passphrase from %s", EnvPassphrase)
		return []byte(p), nil
	}
	return passphraseReader("Passphrase: ")
}

// promptNewPassphrase reads a new passphrase, asking twice on a terminal.
func promptNewPassphrase() ([]byte, error) {
	if p, ok := os.LookupEnv(EnvPassphrase); ok {
		return []byte(p), nil
	}
	return newPassphraseReader("New passphrase: ", "Confirm passphrase: ")
}

// confirm asks a yes/no question on the command's streams. Anything but an
// explicit yes is a no.
func confirm(cmd *cobra.Command, s *spinner.Spinner, question string) bool {
	defer pauseSpinner(s)()

	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		Logger.Errorf("Failed to read response: %v", err)
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// pauseSpinner stops a running spinner and returns a func that resumes it.
func pauseSpinner(s *spinner.Spinner) func() {
	if s == nil || !s.Active() {
		return func() {}
	}
	s.Stop()
	return s.Start
}

// describeError turns known failures into a user-facing message with a hint.
func describeError(err error) string {
	var mismatch *kerrors.ModeMismatchError
	switch {
	case errors.Is(err, kerrors.ErrVaultNotInitialized):
		return ui.Error.Sprint("✗") + " No vault found\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault init") + " first"
	case errors.Is(err, kerrors.ErrVaultAlreadyInitialized):
		return ui.Error.Sprint("✗") + " A vault already exists\n" +
			ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--force") + " to replace it. Stored fields will be lost"
	case errors.As(err, &mismatch):
		if mismatch.Stored == "passphrase" {
			return ui.Error.Sprint("✗") + " This vault is protected by a passphrase\n" +
				ui.Info.Sprint("→") + " Enter it when prompted, or set " + ui.Code.Sprint(EnvPassphrase)
		}
		return ui.Error.Sprint("✗") + " This vault is bound to the machine and does not take a passphrase\n" +
			ui.Info.Sprint("→") + " Check " + ui.Code.Sprint("mode") + " in config.toml"
	case errors.Is(err, kerrors.ErrPassphraseRequired):
		return ui.Error.Sprint("✗") + " A passphrase is required\n" +
			ui.Info.Sprint("→") + " Run in a terminal or set " + ui.Code.Sprint(EnvPassphrase)
	case errors.Is(err, kerrors.ErrMasterKeyMissing):
		return ui.Error.Sprint("✗") + " The master key record is missing\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault init --force") + " to create a new one"
	case errors.Is(err, kerrors.ErrMasterKeyDecryption):
		return ui.Error.Sprint("✗") + " Failed to unlock the master key\n" +
			ui.Info.Sprint("→") + " " + err.Error()
	case errors.Is(err, kerrors.ErrFieldNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault list") + " to see stored fields"
	case errors.Is(err, kerrors.ErrFieldDecryption):
		return ui.Error.Sprint("✗") + " " + err.Error()
	case errors.Is(err, kerrors.ErrSchemaVersion):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " This file was written by a different version of credvault"
	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}

// reportedError marks an error whose description was already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// reportError prints a friendly description and returns err so the process
// exits non-zero.
func reportError(cmd *cobra.Command, err error) error {
	Logger.Debugf("Command failed: %v", err)
	fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
	return reportedError{err: err}
}

// resetFlagValues restores every flag of c and its children to its default.
func resetFlagValues(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlagValues(child)
	}
}
